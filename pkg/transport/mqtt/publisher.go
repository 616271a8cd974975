package mqtt

import "github.com/golang/glog"

// StatusPublisher publishes telemetry payloads without blocking the caller.
type StatusPublisher struct {
	Queue *Queue
}

// Publish implements telemetry.Publisher.
func (p *StatusPublisher) Publish(topic string, payload []byte) error {
	token := p.Queue.Pub(topic, payload)
	go func() {
		if token.Wait(); token.Error() != nil {
			glog.Warningf("publish %s: %v", topic, token.Error())
		}
	}()
	return nil
}
