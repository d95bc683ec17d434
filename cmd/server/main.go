package main

import "parley/internal/app"

// @title                       parley API
// @version                     1.0
// @description                 Chat sessions, messages and the realtime relay.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
