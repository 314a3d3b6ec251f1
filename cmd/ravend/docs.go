package main

// General API documentation for swaggo. Regenerate with:
//
//	swag init -g cmd/ravend/docs.go
//
// @title           ravend API
// @version         1.0
// @description     HTTP API for local model registration, selection, and resource management.
//
// @contact.name   ravend maintainers
// @contact.url    https://github.com/your-org/ravend
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
