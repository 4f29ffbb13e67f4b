package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load 从 YAML 文件加载配置。
// 文件不存在时退回内置默认值，并把默认配置写回该路径，方便用户二次修改。
func Load(file string) (Config, error) {
	b, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		c := Default()
		if out, merr := yaml.Marshal(c); merr == nil {
			_ = os.WriteFile(file, out, 0o644)
		}
		return c, nil
	}
	if err != nil {
		return Config{}, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// MustLoad 从 YAML 文件加载配置（失败 panic）。
func MustLoad(file string) Config {
	c, err := Load(file)
	if err != nil {
		panic(err)
	}
	return c
}
