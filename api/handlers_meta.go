package api

import (
	"net/http"
	"sort"

	"github.com/lab1702/subwar/config"
)

type worldInfoView struct {
	RingCenterX float64  `json:"ring_center_x"`
	RingCenterY float64  `json:"ring_center_y"`
	RingRadiusM float64  `json:"ring_radius_m"`
	Objectives  []string `json:"objectives"`
}

// handleWorldInfo is the unauthenticated rules/geography endpoint: where
// the ring is and what a new player is trying to accomplish.
func (s *Server) handleWorldInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, worldInfoView{
		RingCenterX: s.Cfg.World.RingCenterX,
		RingCenterY: s.Cfg.World.RingCenterY,
		RingRadiusM: s.Cfg.World.RingRadiusM,
		Objectives: []string{
			"sink enemy submarines to score kills",
			"stay inside the ring; weather and range degrade sonar beyond it",
			"call and bind a fueler before battery or fuel runs out",
		},
	})
}

// configDumpView is a deliberately narrowed projection of *config.Config:
// it excludes ServerConfig, which carries the admin seed username, the
// metrics PSK, and the sqlite path, none of which belong on an
// unauthenticated endpoint.
type configDumpView struct {
	World     config.WorldConfig     `json:"world"`
	Submarine config.SubmarineConfig `json:"submarine"`
	Torpedo   config.TorpedoConfig   `json:"torpedo"`
	Sonar     config.SonarConfig     `json:"sonar"`
	Weather   config.WeatherConfig   `json:"weather"`
	Fueler    config.FuelerConfig    `json:"fueler"`
}

// handleConfigDump exposes every gameplay tuning value so clients and
// bots can self-calibrate without hardcoding constants.
func (s *Server) handleConfigDump(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configDumpView{
		World:     s.Cfg.World,
		Submarine: s.Cfg.Submarine,
		Torpedo:   s.Cfg.Torpedo,
		Sonar:     s.Cfg.Sonar,
		Weather:   s.Cfg.Weather,
		Fueler:    s.Cfg.Fueler,
	})
}

type leaderboardRow struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Score    float64 `json:"score"`
	Kills    int     `json:"kills"`
	SubCount int     `json:"sub_count"`
}

// handleLeaderboard aggregates score, kills, and live submarine count per
// user across all of their submarines, ranked by (-score, -kills).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	type agg struct {
		score float64
		kills int
		subs  int
	}

	s.World.Mu.Lock()
	totals := make(map[string]*agg)
	for _, sub := range s.World.Subs {
		a, ok := totals[sub.UserID]
		if !ok {
			a = &agg{}
			totals[sub.UserID] = a
		}
		a.score += sub.Score
		a.kills += sub.Kills
		a.subs++
	}
	rows := make([]leaderboardRow, 0, len(totals))
	for userID, a := range totals {
		username := userID
		if u, ok := s.World.Users[userID]; ok {
			username = u.Username
		}
		rows = append(rows, leaderboardRow{Username: username, Score: a.score, Kills: a.kills, SubCount: a.subs})
	}
	s.World.Mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Kills > rows[j].Kills
	})
	if len(rows) > 50 {
		rows = rows[:50]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}

	writeJSON(w, http.StatusOK, rows)
}
