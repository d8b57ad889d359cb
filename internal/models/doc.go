// Package models lists the chat models an OpenAI compatible provider
// exposes for a given API key, so a providers.<name>.model override can be
// picked from what the account can actually use.
package models
