package kafka

import (
	"time"

	"github.com/IBM/sarama"

	"github.com/heartmarshall/ranking-backend/internal/config"
)

// newSaramaConfig builds the consumer group configuration shared by every
// engagement consumer.
func newSaramaConfig(cfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = "ranking-engine"

	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetOldest
	c.Consumer.Offsets.AutoCommit.Enable = true
	c.Consumer.Offsets.AutoCommit.Interval = time.Second

	c.Consumer.Group.Session.Timeout = cfg.SessionTTL
	c.Consumer.Group.Heartbeat.Interval = cfg.SessionTTL / 3
	c.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	c.Consumer.MaxProcessingTime = 5 * time.Second

	return c
}
