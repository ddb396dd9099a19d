// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various chain events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTHeaderAdded indicates a header has been validated and stored. The
	// notification data is the header's *wire.BlockHeader.
	NTHeaderAdded NotificationType = iota

	// NTChainTipUpdated indicates the canonical chain tip moved, either
	// by a straight extension or by a reorganization. The notification
	// data is the new tip's *chainhash.Hash.
	NTChainTipUpdated
)

// notificationTypeStrings is a map of notification types back to their
// constant names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTHeaderAdded:     "NTHeaderAdded",
	NTChainTipUpdated: "NTChainTipUpdated",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// Notification defines notification that is sent to the caller via the
// callback function provided during the call to Subscribe and consists of a
// notification type as well as associated data that depends on the type.
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Subscribe registers a callback to receive notifications of chain events.
// Registered callbacks are invoked synchronously, in registration order, on
// the goroutine that processed the header.
func (c *Chain) Subscribe(callback NotificationCallback) {
	c.notificationsLock.Lock()
	defer c.notificationsLock.Unlock()
	c.notifications = append(c.notifications, callback)
}

// sendNotification sends a notification with the passed type and data if the
// caller requested notifications by providing a callback function in the call
// to New.
func (c *Chain) sendNotification(typ NotificationType, data interface{}) {
	// Generate and send the notification.
	n := Notification{Type: typ, Data: data}
	c.notificationsLock.RLock()
	defer c.notificationsLock.RUnlock()
	for _, callback := range c.notifications {
		callback(&n)
	}
}
