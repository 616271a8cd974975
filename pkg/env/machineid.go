package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the machine id hash so it can't be correlated with other
// applications.
const AppID = "cmdstepper"

// MachineID retrieves an id unique to this machine and application.
// It falls back to "unknown" when the platform id is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "unknown"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// DefaultClientID is the MQTT client id used when the URL has none.
func DefaultClientID() string {
	return AppID + ":" + MachineID()
}
