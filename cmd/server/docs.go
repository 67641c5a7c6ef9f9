package main

// API metadata read by swag. Regenerate internal/docs after changing any
// handler annotation:
//
//	swag init -g cmd/server/docs.go -o internal/docs --parseInternal
//
// @title TaskWave API
// @version 1.0
// @description Task, focus session and one-time-code API for the TaskWave client.
// @description Protected routes take a bearer token from POST /api/user/signin.
//
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token, sent as "Bearer <token>".
//
// @tag.name User
// @tag.description Sign up, sign in and profile
//
// @tag.name Tasks
// @tag.description Task CRUD, stats and AI drafting
//
// @tag.name FocusSessions
// @tag.description Focus session history and streaks
//
// @tag.name OTP
// @tag.description One-time codes that unlock a password change
//
// @tag.name Core
// @tag.description Health checks
