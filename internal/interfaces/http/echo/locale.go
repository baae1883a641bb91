package echo

import (
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

const (
	isoCodeParam      = "isoCode"
	siteLanguageField = "language"
)

// LocaleResolver picks the request locale from the isoCode query parameter,
// then from the language of the site serving the request host.
type LocaleResolver struct {
	sites    domain.SiteResolver
	fallback language.Tag
}

func NewLocaleResolver(sites domain.SiteResolver, fallback language.Tag) *LocaleResolver {
	return &LocaleResolver{sites: sites, fallback: fallback}
}

func (r *LocaleResolver) Resolve(c echo.Context) language.Tag {
	if iso := strings.TrimSpace(c.QueryParam(isoCodeParam)); iso != "" {
		if tag, err := language.Parse(iso); err == nil {
			return tag
		}
	}
	if r.sites != nil {
		site, err := r.sites.GetByDomain(c.Request().Context(), c.Request().Host)
		if err == nil {
			if v, ok := site.Get(siteLanguageField); ok {
				if s, ok := v.(string); ok {
					if tag, err := language.Parse(s); err == nil {
						return tag
					}
				}
			}
		}
	}
	return r.fallback
}
