package echo

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	msgUnauthorized     = "missing or unknown api token"
	msgBadBody          = "request body could not be read"
	msgForbidden        = "not authorized to import this item type"
	msgInvalidProcess   = "process type must be save, remove or file"
	msgUnknownItemType  = "unknown item type %s"
	msgInvalidPayload   = "request body must be a JSON array of objects"
	msgImportFailed     = "import job %s failed"
	msgImportError      = "failed to import data"
	msgInvalidJobCode   = "code must be a valid UUID"
	msgJobNotFound      = "import job not found"
	msgGetJobFailed     = "failed to get import job"
	msgInvalidFile      = "path must name a .csv file with a valid import file name"
	msgInvalidFileBody  = "invalid request body"
	msgImportSucceeded  = "%d rows processed"
)

var messages = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	german := map[string]string{
		msgUnauthorized:    "API-Token fehlt oder ist unbekannt",
		msgBadBody:         "Anfrageinhalt konnte nicht gelesen werden",
		msgForbidden:       "keine Berechtigung, diesen Typ zu importieren",
		msgInvalidProcess:  "Prozesstyp muss save, remove oder file sein",
		msgUnknownItemType: "unbekannter Typ %s",
		msgInvalidPayload:  "Anfrageinhalt muss ein JSON-Array von Objekten sein",
		msgImportFailed:    "Importauftrag %s ist fehlgeschlagen",
		msgImportError:     "Daten konnten nicht importiert werden",
		msgInvalidJobCode:  "Code muss eine gültige UUID sein",
		msgJobNotFound:     "Importauftrag nicht gefunden",
		msgGetJobFailed:    "Importauftrag konnte nicht gelesen werden",
		msgInvalidFile:     "Pfad muss eine .csv-Datei mit gültigem Importnamen sein",
		msgInvalidFileBody: "ungültiger Anfrageinhalt",
		msgImportSucceeded: "%d Zeilen verarbeitet",
	}
	for key, translation := range german {
		_ = b.SetString(language.German, key, translation)
		_ = b.SetString(language.English, key, key)
	}
	return b
}

func printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}
