package configs

type Config struct {
	// 基础配置
	Skills          []string `json:"skills" yaml:"skills"`                     // 每轮分析的技能列表
	RefreshInterval string   `json:"refresh_interval" yaml:"refresh_interval"` // 分析刷新间隔
	MetricsAddr     string   `json:"metrics_addr" yaml:"metrics_addr"`         // Prometheus 监听地址
	Proxy           string   `json:"proxy" yaml:"proxy"`

	Oracle OracleConfig `json:"oracle" yaml:"oracle"`

	Database Database `json:"database" yaml:"database"`

	Redis RedisConfig `json:"redis" yaml:"redis"`

	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`

	// AI 模型参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`
}

type OracleConfig struct {
	ContractAddress string `json:"contract_address" yaml:"contract_address"` // 技能定价合约地址
	RPCURL          string `json:"rpc_url" yaml:"rpc_url"`                   // JSON-RPC 节点地址
	ChainID         int64  `json:"chain_id" yaml:"chain_id"`                 // 结算链 ID
	BaselinesFile   string `json:"baselines_file" yaml:"baselines_file"`     // 技能基线覆盖文件（可选）
}

type AIConfig struct {
	APIKey    string `json:"api_key" yaml:"api_key"`       // AI服务API密钥
	ModelType string `json:"model_type" yaml:"model_type"` // AI模型类型
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"` // 为空时使用进程内缓存
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"` // 为空时不推送通知
	Topic   string   `json:"topic" yaml:"topic"`
}
