// Package notifications keeps the in-app notification feed of registered users.
//
// Manager stamps and persists notifications through a Storage. MemoryStorage
// is the in-process implementation used by tests and local runs; the
// PostgreSQL implementation lives with the other stores.
//
//	m := notifications.NewManager(storage)
//	err := m.Send(ctx, notifications.Notification{
//		UserID:  userID,
//		Type:    notifications.TypeSuccess,
//		Title:   "VIP access activated",
//		Message: "Your 1 month plan runs until 12 April.",
//	})
package notifications
