package main

import (
	"fmt"
	"os"

	"github.com/biosecret/todo-auth/app"
	_ "github.com/biosecret/todo-auth/docs"
)

//	@title						Todo Auth API
//	@version					1.0
//	@description				Multi-user todo list with session authentication.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	if err := app.SetupAndRunApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
