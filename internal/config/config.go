package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Application struct {
	Listen   string   `koanf:"listen"`
	Timezone string   `koanf:"timezone"`
	Storage  Storage  `koanf:"storage"`
	Database Database `koanf:"db"`
	Layout   Layout   `koanf:"layout"`
	TimeSlot TimeSlot `koanf:"timeslot"`
	Metrics  Metrics  `koanf:"metrics"`
}

type Storage struct {
	// Driver is one of memory, sqlite or postgres.
	Driver string `koanf:"driver"`
	// Key under which the serialized event list is kept.
	Key    string `koanf:"key"`
	SQLite SQLite `koanf:"sqlite"`
}

type SQLite struct {
	Path string `koanf:"path"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Layout struct {
	// Capacity is the default number of visible events per day cell.
	Capacity int `koanf:"capacity"`
	// WeekFirstDay is a time.Weekday value, 0 = Sunday, 1 = Monday.
	WeekFirstDay int `koanf:"weekfirstday"`
}

func (l Layout) FirstDay() time.Weekday {
	if l.WeekFirstDay < int(time.Sunday) || l.WeekFirstDay > int(time.Saturday) {
		return time.Monday
	}
	return time.Weekday(l.WeekFirstDay)
}

type TimeSlot struct {
	Interval time.Duration `koanf:"interval"`
}

type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

// Location resolves Timezone, an IANA zone name event dates are read in.
// Empty means the server's local zone.
func (a Application) Location() (*time.Location, error) {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

func Defaults() Application {
	return Application{
		Listen: ":8181",
		Storage: Storage{
			Driver: StorageSQLite,
			Key:    "EVENTS",
			SQLite: SQLite{Path: "./data/kalendar.db"},
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "kalendar",
			Pass:   "",
			Name:   "kalendar",
			Schema: "kalendar",
		},
		Layout: Layout{
			Capacity:     3,
			WeekFirstDay: int(time.Monday),
		},
		TimeSlot: TimeSlot{Interval: 15 * time.Minute},
		Metrics:  Metrics{Enabled: true},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "KALENDAR_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "KALENDAR_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
