package world

import (
	"testing"
	"time"

	"github.com/lab1702/subwar/config"
)

func testWeatherConfig() *config.WeatherConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return &cfg.Weather
}

func TestGenerateInitialCloudsCount(t *testing.T) {
	cfg := testWeatherConfig()
	clouds := GenerateInitialClouds(cfg, 0, 0, 20000)
	if len(clouds) != cfg.BaseCount {
		t.Fatalf("got %d clouds, want %d", len(clouds), cfg.BaseCount)
	}
	for _, c := range clouds {
		if c.Radius < cfg.MinRadiusM || c.Radius > cfg.MaxRadiusM {
			t.Errorf("cloud radius %v out of configured bounds", c.Radius)
		}
	}
}

func TestMaintainWeatherExpiresClouds(t *testing.T) {
	w := &World{}
	cfg := testWeatherConfig()
	now := time.Unix(1000, 0)
	w.Clouds = []*WeatherCloud{
		{ID: "expired", CenterX: 25000, CenterY: 0, Radius: 500, ExpiryTime: now.Add(-time.Second)},
		{ID: "alive", CenterX: 25000, CenterY: 0, Radius: 500, ExpiryTime: now.Add(time.Hour)},
	}
	MaintainWeather(w, cfg, 0, 0, 20000, now, nil)
	for _, c := range w.Clouds {
		if c.ID == "expired" {
			t.Fatal("expired cloud was not removed")
		}
	}
}

func TestMaintainWeatherCapEnforced(t *testing.T) {
	w := &World{}
	cfg := testWeatherConfig()
	cfg.BaseCount = 5
	cfg.MaxCountFactor = 2.0
	now := time.Unix(1000, 0)
	for i := 0; i < 50; i++ {
		w.Clouds = append(w.Clouds, &WeatherCloud{
			ID:      "c",
			CenterX: 21000 + float64(i)*10,
			CenterY: 0,
			Radius:  300,
		})
	}
	MaintainWeather(w, cfg, 0, 0, 20000, now, nil)
	cap := int(float64(cfg.BaseCount) * cfg.MaxCountFactor)
	if len(w.Clouds) > cap {
		t.Fatalf("cloud count %d exceeds cap %d", len(w.Clouds), cap)
	}
}

func TestCloudsContaining(t *testing.T) {
	clouds := []*WeatherCloud{
		{ID: "a", CenterX: 500, CenterY: 0, Radius: 500, MinDepth: 50, MaxDepth: 150},
	}
	if got := CloudsContaining(clouds, 600, 0, 100); len(got) != 1 {
		t.Fatalf("expected point inside cloud to match, got %d", len(got))
	}
	if got := CloudsContaining(clouds, 600, 0, 200); len(got) != 0 {
		t.Fatalf("expected point outside depth band to miss, got %d", len(got))
	}
	if got := CloudsContaining(clouds, 2000, 0, 100); len(got) != 0 {
		t.Fatalf("expected point outside radius to miss, got %d", len(got))
	}
}
