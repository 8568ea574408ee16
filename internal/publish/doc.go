// Package publish forwards analyzed measurements to the MQTT results topic.
package publish
