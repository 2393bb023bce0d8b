package docs

import "github.com/swaggo/swag"

// @title           Vaultboard API
// @version         1.0
// @description     API for kanban boards reconciled from markdown task files
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token

// @tag.name Auth
// @tag.description Admin login

// @tag.name Boards
// @tag.description Board management and on-demand sync

// @tag.name Cards
// @tag.description Card operations written back to board files

// Register swagger info
func SwaggerInfo() *swag.Spec {
	return swag.Instance
}
