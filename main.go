// @title           Product Dashboard API
// @version         1.0
// @description     Authentication, product CRUD and the live product feed behind the dashboard.
// @host            localhost:8080
// @BasePath        /
//
// @securityDefinitions.apikey SessionCookie
// @in   cookie
// @name session
package main

import "github.com/99minutos/product-dashboard/cmd"

func main() {
	cmd.Execute()
}
