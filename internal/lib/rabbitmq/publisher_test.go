package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishMessage(t *testing.T) {
	url := amqpURL(t)

	conn, err := Connect(url, 5, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	exchange := "bookflix.publish.test"
	ch, err := SetupExchange(conn, exchange)
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "subscription.*", exchange, false, nil))

	type event struct {
		UserUID string `json:"user_uid"`
		TierID  int    `json:"tier_id"`
	}

	t.Run("routed by topic", func(t *testing.T) {
		msg := event{UserUID: "u-1", TierID: 2}
		require.NoError(t, PublishMessage(ch, exchange, "subscription.activated", msg))

		deliveries, err := ch.Consume(q.Name, "test-consumer", true, false, false, false, nil)
		require.NoError(t, err)

		select {
		case d := <-deliveries:
			var got event
			require.NoError(t, json.Unmarshal(d.Body, &got))
			assert.Equal(t, msg, got)
			assert.Equal(t, "application/json", d.ContentType)
			assert.Equal(t, "subscription.activated", d.Type)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	})

	t.Run("marshal error", func(t *testing.T) {
		bad := struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)}

		err := PublishMessage(ch, exchange, "subscription.activated", bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})
}
