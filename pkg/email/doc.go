// Package email sends transactional mail.
//
// Sender is the provider-agnostic interface. PostmarkSender delivers through
// github.com/mrz1836/postmark; DevSender writes each message to disk as an
// HTML file plus JSON metadata so templates can be inspected locally. New
// picks one of them from Config.
//
// Message bodies are rendered from templ components with templates.Render.
package email
