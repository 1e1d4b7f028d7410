package config

// migrateNotifications folds the legacy show_device_changes field into
// show_device_availability. If the new field was explicitly present in the
// source document, its value wins and the old field is discarded
// untouched; otherwise the old field's value (when present) becomes the
// new field's value. Either way ShowDeviceChanges is cleared, so repeated
// calls are idempotent.
func migrateNotifications(n NotificationConfig, newFieldPresent bool) NotificationConfig {
	if n.ShowDeviceChanges != nil && !newFieldPresent {
		n.ShowDeviceAvailability = *n.ShowDeviceChanges
	}
	n.ShowDeviceChanges = nil
	return n
}
