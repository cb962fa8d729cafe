package events

import (
	"time"

	natslib "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/mExOms/mm-kernel/pkg/nats"
	"github.com/mExOms/mm-kernel/pkg/types"
)

// Relay drains a Broadcaster subscription and republishes every event to
// a NATS JetStream subject, giving external consumers the same stream an
// in-process subscriber sees.
type Relay struct {
	client  *nats.Client
	subject string
	log     *logrus.Entry
	stop    chan struct{}
	done    chan struct{}
}

// NewRelay connects a NATS client scoped to subject and the stream it
// belongs to.
func NewRelay(url, clientID, streamName, subject string) (*Relay, error) {
	client, err := nats.NewClient(&nats.Config{
		URL:      url,
		ClientID: clientID,
		Stream: nats.StreamConfig{
			Name:      streamName,
			Subjects:  []string{subject},
			Retention: natslib.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			MaxMsgs:   1_000_000,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Relay{
		client:  client,
		subject: subject,
		log:     logrus.WithField("component", "events.nats_relay"),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Run drains ch until it closes or Stop is called, publishing every
// event to the relay's subject. This is one of the kernel's two
// legitimate suspension points: persistence is the other.
func (r *Relay) Run(ch <-chan types.MarketMakerEvent) {
	defer close(r.done)
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := r.client.Publish(r.subject, evt); err != nil {
				r.log.WithError(err).Warn("failed to relay event")
			}
		case <-r.stop:
			return
		}
	}
}

// Stop signals Run to exit and waits for it to finish.
func (r *Relay) Stop() {
	close(r.stop)
	<-r.done
	r.client.Close()
}
