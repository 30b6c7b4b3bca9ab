package output

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = notifyDest + ".Notify"
	appName      = "emojicherrypick"
	urgencyLow   = byte(0)
)

// busObject is the part of dbus.BusObject used to send notifications.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// connectNotifications opens the session bus and returns the notification
// daemon object with a function closing the connection. Tests replace it.
var connectNotifications = func() (busObject, func() error, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, err
	}
	return conn.Object(notifyDest, notifyPath), conn.Close, nil
}

// DBusNotify shows the emoji through org.freedesktop.Notifications on the
// session bus, without spawning notify-send.
type DBusNotify struct {
	// ID is the notification id returned by the daemon after Send.
	ID uint32
}

func (*DBusNotify) Name() string { return "notify" }

func (n *DBusNotify) Send(ctx context.Context, emoji string) error {
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	obj, closeConn, err := connectNotifications()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer closeConn()

	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgencyLow)}
	// app_name, replaces_id, app_icon, summary, body, actions, hints,
	// expire_timeout (-1 leaves it to the server).
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		appName, uint32(0), "", emoji, "", []string{}, hints, int32(-1))
	if call.Err != nil {
		return call.Err
	}
	return call.Store(&n.ID)
}
