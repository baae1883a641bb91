package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, jobHandler *JobHandler) {
	group := server.Group("/dataimport")
	group.GET("/heart-beat", importHandler.HeartBeat)
	group.POST("/files", importHandler.ImportFile)
	group.GET("/jobs/:code", jobHandler.GetImportJob)
	group.POST("/:processType/:itemType", importHandler.ImportData)
}
