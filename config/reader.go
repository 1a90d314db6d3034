package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ConfigSchema struct {
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Redis  RedisConfig `yaml:"redis"`
	Rabbit struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`
	Fanout struct {
		Async   bool `yaml:"async"`
		Workers int  `yaml:"workers"`
	} `yaml:"fanout"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

var AppConfig *ConfigSchema

func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var conf ConfigSchema
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return err
	}
	AppConfig = &conf
	return nil
}
