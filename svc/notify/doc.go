// Package notify delivers subscription notices: Postmark email rendered with
// templ, in-app notification rows and signed webhook relays. Notifiers are
// combined with Multi and handed to the subscription lifecycle.
package notify
