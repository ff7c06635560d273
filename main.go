package main

import (
	"embed"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"ferdi-server/backend/api/middleware"
	"ferdi-server/backend/api/route"
	"ferdi-server/backend/common"
	"ferdi-server/backend/model"

	"github.com/gin-gonic/gin"
)

//go:embed web
var webFS embed.FS

func main() {
	flag.Parse()
	if *common.PrintVersion {
		println(common.Version)
		os.Exit(0)
	}
	if *common.PrintHelpFlag {
		common.PrintHelp()
		os.Exit(0)
	}
	if err := common.LoadConfigFile(); err != nil {
		common.FatalLog(err)
	}
	common.SetupGinLog()
	common.SysLog("ferdi-server " + common.Version + " started")
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := common.InitRedisClient(); err != nil {
		common.FatalLog(err)
	}
	if err := model.InitDB(); err != nil {
		common.FatalLog(err)
	}
	defer func() {
		if err := model.CloseDB(); err != nil {
			common.FatalLog(err)
		}
	}()

	for _, dir := range []string{common.UploadPath, common.RecipePath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			common.FatalLog(err)
		}
	}

	server := gin.Default()
	server.Use(middleware.CORS())
	route.SetRouter(server, webFS)

	setupGracefulShutdown()

	port := strconv.Itoa(*common.Port)
	common.SysLog("Server listening on port: " + port)
	if err := server.Run(":" + port); err != nil {
		log.Fatal("failed to start server: " + err.Error())
	}
}

// setupGracefulShutdown registers signal handlers to ensure clean shutdown
func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		common.SysLog("Shutting down...")
		if err := model.CloseDB(); err != nil {
			common.SysError("error closing database: " + err.Error())
		}
		os.Exit(0)
	}()
}
