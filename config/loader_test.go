package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seo-optimizer/geo/config"
	"github.com/seo-optimizer/geo/judge"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading with defaults only", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load()

			convey.Convey("Then the defaults are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8082")
				convey.So(cfg.JudgeTimeout, convey.ShouldEqual, 60*time.Second)
				convey.So(cfg.SiteConcurrency, convey.ShouldEqual, 3)
				convey.So(cfg.LLMMaxTokens, convey.ShouldEqual, 2500)
				convey.So(len(cfg.Personas()), convey.ShouldEqual, len(judge.DefaultPersonas()))
			})
		})

		convey.Convey("When environment variables are set", func() {
			clearConfigEnvVars(t)
			t.Setenv("GEO_ADDR", ":9090")
			t.Setenv("GEO_JUDGE_TIMEOUT", "5s")
			t.Setenv("GEO_SITE_CONCURRENCY", "7")
			t.Setenv("GEO_KAFKA_BROKERS", "k1:9092, k2:9092")

			cfg, err := config.Load()

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.JudgeTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.SiteConcurrency, convey.ShouldEqual, 7)
				convey.So(cfg.Brokers(), convey.ShouldResemble, []string{"k1:9092", "k2:9092"})
			})
		})

		convey.Convey("When a YAML file lists judges", func() {
			clearConfigEnvVars(t)
			path := filepath.Join(t.TempDir(), "geo.yaml")
			yaml := `
addr: ":7000"
judges:
  - id: solo
    name: Solo judge
    model: vendor/model-x
    focus:
      rag: 1.5
      bogus: 2
`
			convey.So(os.WriteFile(path, []byte(yaml), 0o644), convey.ShouldBeNil)
			t.Setenv("GEO_CONFIG", path)

			cfg, err := config.Load()

			convey.Convey("Then the file replaces the default panel", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				personas := cfg.Personas()
				convey.So(len(personas), convey.ShouldEqual, 1)
				convey.So(personas[0].ID, convey.ShouldEqual, "solo")
				convey.So(personas[0].Focus[judge.RAG], convey.ShouldEqual, 1.5)
				convey.So(len(personas[0].Focus), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a setting is invalid", func() {
			clearConfigEnvVars(t)
			t.Setenv("GEO_SITE_CONCURRENCY", "0")

			_, err := config.Load()

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars(t)
			t.Setenv("GEO_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

			_, err := config.Load()

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars(t *testing.T) {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				key := kv[:i]
				if len(key) > 4 && key[:4] == "GEO_" {
					t.Setenv(key, "")
					_ = os.Unsetenv(key)
				}
				break
			}
		}
	}
}
