package server

//go:generate swag init -g internal/server/swagger.go -o internal/server/docs

// @title bizaudit API
// @version 1.0
// @description Listing audits: queue-paced extraction, cached scoring and queue controls.
// @contact.name bizaudit maintainers
// @contact.url https://github.com/raysh454/bizaudit
// @BasePath /
