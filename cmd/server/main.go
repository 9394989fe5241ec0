package main

import "alcyxob/gym-app/internal/cmd"

// @title Gym App API
// @version 1.0
// @description API for gyms, their equipment, workout logging and equipment recommendations.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cmd.Execute()
}
