// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Thermoquad/sentinel/pkg/alarm"
	"github.com/Thermoquad/sentinel/pkg/controller"
	"github.com/Thermoquad/sentinel/pkg/logger"
)

// Configuration keys
const (
	keySerialPort       = "serial.port"
	keySerialBaud       = "serial.baud"
	keyPollInterval     = "controller.poll_interval"
	keyWSURL            = "ws.url"
	keyWSUsername       = "ws.username"
	keyWSNoSSLVerify    = "ws.no_ssl_verify"
	keyWSListen         = "ws.listen"
	keyWSPasswordHash   = "ws.password_hash"
	keyDBPath           = "db.path"
	keyGPIOSiren        = "gpio.siren"
	keyGPIOGas          = "gpio.gas"
	keyGPIOGasActiveLow = "gpio.gas_active_low"
	keyGPIOStrobe       = "gpio.strobe"
	keyTempPath         = "temperature.path"
	keyTempLimit        = "temperature.limit_c"
	keyTempSimulated    = "temperature.simulated_c"
	keyStrobeMs         = "alarm.strobe_ms"
	keyMaxWrongCodes    = "alarm.max_wrong_codes"
	keyDefaultCode      = "code.default"
	keyLogLevel         = "log.level"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keySerialBaud, 115200)
	v.SetDefault(keyPollInterval, controller.DefaultPollInterval)
	v.SetDefault(keyDBPath, "sentinel.db")
	v.SetDefault(keyTempLimit, alarm.DefaultTemperatureLimit)
	v.SetDefault(keyTempSimulated, 22.0)
	v.SetDefault(keyStrobeMs, int(alarm.DefaultStrobePeriod.Milliseconds()))
	v.SetDefault(keyMaxWrongCodes, alarm.DefaultMaxWrongCodes)
	v.SetDefault(keyDefaultCode, "1805")
	v.SetDefault(keyLogLevel, logger.InfoLevel)
}

// initConfig loads the config file and environment and binds the
// persistent flags, so flags override both
func initConfig(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	setDefaults(v)

	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("sentinel")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		keySerialPort:    "port",
		keySerialBaud:    "baud",
		keyWSURL:         "url",
		keyWSUsername:    "username",
		keyWSNoSSLVerify: "no-ssl-verify",
		keyLogLevel:      "log-level",
		keyDBPath:        "db",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}
	return nil
}

// newLogger builds the logger at the configured level
func newLogger() *logger.Logger {
	return logger.New(viper.GetString(keyLogLevel))
}
