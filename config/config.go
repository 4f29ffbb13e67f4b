package config

// Config Agent 运行所需的完整配置。
// 说明：各组件在构造时接收 Config（或其子段），进程内不存在全局配置单例。
type Config struct {
	Server struct {
		Host string `yaml:"host"` // 监听地址，例如 127.0.0.1
		Port int    `yaml:"port"` // 监听端口，例如 25927
	} `yaml:"server"`

	ComfyUI struct {
		Endpoint          string `yaml:"endpoint"`            // 形如 127.0.0.1:8188
		OutputNodeID      string `yaml:"output_node_id"`      // 结果图所在的节点编号，属于工作流模板契约
		StreamIdleSeconds int    `yaml:"stream_idle_seconds"` // 进度流单次读取的空闲超时，0 取默认值
	} `yaml:"comfyui"`

	DB struct {
		SqliteFile string `yaml:"sqlite_file"` // sqlite 数据库文件路径
		Debug      bool   `yaml:"debug"`       // 打印 ORM 生成的 SQL
	} `yaml:"db"`

	Storage struct {
		OutputFileDir string `yaml:"output_file_dir"` // 生成图片的落盘目录
	} `yaml:"storage"`

	Translator struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"` // 翻译服务地址，空则直接透传
	} `yaml:"translator"`

	Metrics struct {
		ReportSeconds int `yaml:"report_seconds"` // 系统指标上报周期
	} `yaml:"metrics"`

	Log struct {
		Level string `yaml:"level"` // debug/info/warn/error
	} `yaml:"log"`
}

// Default 内置默认配置。
func Default() Config {
	var c Config
	c.Server.Host = "127.0.0.1"
	c.Server.Port = 25927
	c.ComfyUI.Endpoint = "127.0.0.1:8188"
	c.ComfyUI.OutputNodeID = "10"
	c.ComfyUI.StreamIdleSeconds = 600
	c.DB.SqliteFile = "data/mox.db"
	c.Storage.OutputFileDir = "data/output"
	c.Metrics.ReportSeconds = 5
	c.Log.Level = "info"
	return c
}
