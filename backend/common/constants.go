package common

import "flag"

var Version = "v1.0.0"

var (
	Port          = flag.Int("port", 3000, "the listening port")
	PrintVersion  = flag.Bool("version", false, "print version and exit")
	PrintHelpFlag = flag.Bool("help", false, "print help and exit")
	LogDir        = flag.String("log-dir", "", "the log directory")
)

// Paths. SQLitePath and the data directories may be overridden by the config
// file or environment.
var (
	SQLitePath = "data/ferdi-server.db"
	UploadPath = "data/uploads"
	RecipePath = "data/recipes"
)

// Server behaviour knobs.
var (
	// AppURL is the externally reachable base URL of this server. Icon URLs
	// handed to clients are derived from it.
	AppURL = "http://localhost:3000"

	// RegistrationEnabled gates signup and account import.
	RegistrationEnabled = true

	// RecipeCreationEnabled gates the custom recipe creation page.
	RecipeCreationEnabled = true

	// ConnectWithFranz enables federation with the upstream Franz directory
	// and account API.
	ConnectWithFranz = false

	// FranzAPIBase is the upstream API root used when federation is enabled.
	FranzAPIBase = "https://api.franzinfra.com/v1/"
)

var JWTSecret = ""

var (
	RedisEnabled    = false
	RedisConnString = ""
)

func PrintHelp() {
	println("ferdi-server " + Version + " - a Franz/Ferdi compatible account and recipe server")
	println("Copyright (C) 2026. All rights reserved.")
	println("Usage: ferdi-server [--port <port>] [--log-dir <log dir>] [--version] [--help]")
}
