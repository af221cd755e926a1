package sim

import (
	"testing"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/world"
)

func testSonarConfig() *config.SonarConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return &cfg.Sonar
}

func TestRunPassiveSonarReportsCloseContact(t *testing.T) {
	cfg := testSonarConfig()
	now := time.Now()
	obs := &world.Submarine{ID: "obs", UserID: "u1", X: 0, Y: 0}
	tgt := &world.Submarine{ID: "tgt", UserID: "u2", X: 200, Y: 0, Speed: 10}
	w := &world.World{
		Subs:  map[string]*world.Submarine{"obs": obs, "tgt": tgt},
		Torps: map[string]*world.Torpedo{},
	}
	fabric := events.NewFabric(10)
	q := fabric.Subscribe("u1")

	RunPassiveSonar(w, cfg, 0, 0, 50000, fabric, now)

	select {
	case ev := <-q.C():
		if ev.Kind != events.KindContact {
			t.Fatalf("expected a contact event, got %v", ev.Kind)
		}
	default:
		t.Fatal("expected a contact report for a close, fast target")
	}
}

func TestRunPassiveSonarRespectsReportCooldown(t *testing.T) {
	cfg := testSonarConfig()
	now := time.Now()
	obs := &world.Submarine{ID: "obs", UserID: "u1", LastPassiveReport: now, NextReportIntervalS: 1000}
	tgt := &world.Submarine{ID: "tgt", UserID: "u2", X: 50, Y: 0}
	w := &world.World{
		Subs:  map[string]*world.Submarine{"obs": obs, "tgt": tgt},
		Torps: map[string]*world.Torpedo{},
	}
	fabric := events.NewFabric(10)
	q := fabric.Subscribe("u1")

	RunPassiveSonar(w, cfg, 0, 0, 50000, fabric, now)

	select {
	case ev := <-q.C():
		t.Fatalf("expected no report before cooldown elapsed, got %v", ev)
	default:
	}
}

func TestRequestPingChargesBatteryAndSchedulesEcho(t *testing.T) {
	cfg := testSonarConfig()
	now := time.Now()
	pinger := &world.Submarine{ID: "p", UserID: "u1", Battery: 100, X: 0, Y: 0}
	tgt := &world.Submarine{ID: "t", UserID: "u2", X: 1000, Y: 0}
	w := &world.World{Subs: map[string]*world.Submarine{"p": pinger, "t": tgt}}
	fabric := events.NewFabric(10)
	fabric.Subscribe("u2")
	echoes := NewPendingEchoes()

	if err := RequestPing(w, pinger, 90, 0, 0, cfg, 0, 0, 50000, fabric, echoes, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pinger.Battery >= 100 {
		t.Fatal("expected ping to cost battery")
	}
	if len(echoes.items) != 1 {
		t.Fatalf("expected one scheduled echo, got %d", len(echoes.items))
	}
}

func TestRequestPingRejectsDuringCooldown(t *testing.T) {
	cfg := testSonarConfig()
	now := time.Now()
	pinger := &world.Submarine{ID: "p", UserID: "u1", Battery: 100, LastPingTime: now}
	w := &world.World{Subs: map[string]*world.Submarine{"p": pinger}}
	fabric := events.NewFabric(10)
	echoes := NewPendingEchoes()

	if err := RequestPing(w, pinger, 0, 0, 0, cfg, 0, 0, 50000, fabric, echoes, now); err == nil {
		t.Fatal("expected cooldown error")
	}
}

func TestDeliverDueEchoesOnlyDeliversArrived(t *testing.T) {
	cfg := testSonarConfig()
	now := time.Now()
	echoes := NewPendingEchoes()
	echoes.items = []pendingEcho{
		{pingerUserID: "u1", arrival: now.Add(-time.Second), echoLevel: 20, rng: 500},
		{pingerUserID: "u1", arrival: now.Add(time.Hour), echoLevel: 20, rng: 500},
	}
	fabric := events.NewFabric(10)
	q := fabric.Subscribe("u1")

	DeliverDueEchoes(echoes, cfg, fabric, now)

	if len(echoes.items) != 1 {
		t.Fatalf("expected one echo to remain pending, got %d", len(echoes.items))
	}
	select {
	case ev := <-q.C():
		if ev.Kind != events.KindEcho {
			t.Fatalf("expected an echo event, got %v", ev.Kind)
		}
	default:
		t.Fatal("expected the arrived echo to be delivered")
	}
}
