package messaging

// Config 消息队列配置.
//
// 示例:
//
//	cfg := &messaging.Config{
//	    Brokers: []string{"localhost:9092", "localhost:9093"},
//	}
type Config struct {
	// Brokers 服务器地址列表.
	// 格式为 host:port，例如 "localhost:9092".
	Brokers []string `json:"brokers" yaml:"brokers" mapstructure:"brokers"`

	// ClientID 客户端标识，便于在 Kafka 中追踪.
	ClientID string `json:"client_id" yaml:"client_id" mapstructure:"client_id"`
}

// Validate 验证配置.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilMessage
	}
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}
	return nil
}
