// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Thermoquad/sentinel/pkg/alarm"
	"github.com/Thermoquad/sentinel/pkg/clock"
	"github.com/Thermoquad/sentinel/pkg/controller"
	"github.com/Thermoquad/sentinel/pkg/logger"
	"github.com/Thermoquad/sentinel/pkg/sensors"
	"github.com/Thermoquad/sentinel/pkg/store"
	"github.com/Thermoquad/sentinel/pkg/wslink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the alarm controller",
	Long: `Run the alarm controller host loop.

The controller reads the detectors, drives the siren and strobe, records
events, and serves the operator control channel on the serial port given by
--port and/or on a WebSocket listener (--listen).

Each WebSocket connection is its own control channel with its own input
mode. Connections to the /watch path are read-only: they receive a copy of
everything written on every control channel (see 'sentinel monitor').

Detectors and outputs are wired through GPIO pins named in the config file
(gpio.gas, gpio.siren, gpio.strobe). Unset pins are simulated: the gas
detector reads inactive and outputs are discarded. Without temperature.path
the temperature is fixed at temperature.simulated_c.`,
	RunE: runServe,
}

// watchPath serves read-only watcher connections; every other path is an
// operator control channel
const watchPath = "/watch"

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "WebSocket listen address (e.g. :8080)")
	_ = viper.BindPFlag(keyWSListen, serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	port := viper.GetString(keySerialPort)
	listen := viper.GetString(keyWSListen)
	if port == "" && listen == "" {
		return fmt.Errorf("either --port or --listen must be specified")
	}

	db, err := store.Open(viper.GetString(keyDBPath))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorw("failed to close database", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	written, err := db.Codes.EnsureDefault(ctx, []byte(viper.GetString(keyDefaultCode)))
	if err != nil {
		return err
	}
	if written {
		log.Warnw("no access code provisioned, default code installed")
	}

	devices, err := openDevices(log)
	if err != nil {
		return err
	}

	ctrl := controller.New(controller.Config{
		Alarm: alarm.Config{
			TemperatureLimit: viper.GetFloat64(keyTempLimit),
			MaxWrongCodes:    viper.GetInt(keyMaxWrongCodes),
			StrobePeriod:     time.Duration(viper.GetInt(keyStrobeMs)) * time.Millisecond,
		},
		PollInterval: viper.GetDuration(keyPollInterval),
	}, controller.Deps{
		Devices: devices,
		Events:  db.Events,
		Codes:   db.Codes,
		Clock:   clock.New(time.Local),
		Log:     log,
	})

	if port != "" {
		conn, err := OpenSerialConnection(port, viper.GetInt(keySerialBaud))
		if err != nil {
			return err
		}
		ctrl.Attach(controller.NewStreamLink("serial:"+port, conn))
		log.Infow("serial control channel open", "port", port, "baud", viper.GetInt(keySerialBaud))
	}

	var srv *http.Server
	if listen != "" {
		username := viper.GetString(keyWSUsername)
		passwordHash := viper.GetString(keyWSPasswordHash)

		mux := http.NewServeMux()
		mux.Handle(watchPath, &wslink.Handler{
			Username:     username,
			PasswordHash: passwordHash,
			OnConnect: func(name string, conn *wslink.Conn) {
				ctrl.Watch(controller.NewStreamLink(name+watchPath, conn))
			},
			Log: log,
		})
		mux.Handle("/", &wslink.Handler{
			Username:     username,
			PasswordHash: passwordHash,
			OnConnect: func(name string, conn *wslink.Conn) {
				ctrl.Attach(controller.NewStreamLink(name, conn))
			},
			Log: log,
		})

		srv = &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Infow("websocket listener started", "addr", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("websocket listener failed", "err", err)
				stop()
			}
		}()
	}

	err = ctrl.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("websocket listener shutdown", "err", err)
		}
	}
	return err
}

// openDevices opens the configured GPIO lines, simulating any that are not
// configured
func openDevices(log *logger.Logger) (alarm.Devices, error) {
	dev := alarm.Devices{
		Gas:         sensors.NewSwitch(false),
		Thermometer: sensors.FixedCelsius(viper.GetFloat64(keyTempSimulated)),
		Siren:       sensors.NopOutput{},
		Strobe:      sensors.NopOutput{},
	}

	if pin := viper.GetString(keyGPIOGas); pin != "" {
		in, err := sensors.OpenInput(pin, viper.GetBool(keyGPIOGasActiveLow))
		if err != nil {
			return dev, err
		}
		dev.Gas = in
	} else {
		log.Warnw("gas detector not configured, simulating")
	}

	if path := viper.GetString(keyTempPath); path != "" {
		dev.Thermometer = sensors.SysfsThermometer{Path: path}
	} else {
		log.Warnw("temperature sensor not configured, simulating", "celsius", viper.GetFloat64(keyTempSimulated))
	}

	for key, out := range map[string]*sensors.DigitalOutput{
		keyGPIOSiren:  &dev.Siren,
		keyGPIOStrobe: &dev.Strobe,
	} {
		pin := viper.GetString(key)
		if pin == "" {
			continue
		}
		o, err := sensors.OpenOutput(pin)
		if err != nil {
			return dev, err
		}
		*out = o
	}

	return dev, nil
}
