// Package config loads the server's tuning configuration: defaults
// deep-merged with an optional user-supplied YAML document and
// environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig controls process-level concerns: listen address,
// persistence path, and tick rate.
type ServerConfig struct {
	Addr       string  `mapstructure:"addr" validate:"required"`
	DBPath     string  `mapstructure:"db_path" validate:"required"`
	TickRate   float64 `mapstructure:"tick_rate_hz" validate:"gt=0"`
	AdminSeed  string  `mapstructure:"admin_seed_username"`
	MetricsPSK string  `mapstructure:"metrics_psk"`
}

// WorldConfig describes the bounded arena and its central "ring".
type WorldConfig struct {
	RingCenterX   float64 `mapstructure:"ring_center_x"`
	RingCenterY   float64 `mapstructure:"ring_center_y"`
	RingRadiusM   float64 `mapstructure:"ring_radius_m" validate:"gt=0"`
	SpawnMinSepM  float64 `mapstructure:"spawn_min_separation_m" validate:"gt=0"`
	SpawnAnnulusM float64 `mapstructure:"spawn_annulus_width_m" validate:"gt=0"`
}

// SubmarineConfig tunes submarine physics and resource economy.
type SubmarineConfig struct {
	MaxSpeedMps           float64 `mapstructure:"max_speed_mps" validate:"gt=0"`
	AccelerationMps2       float64 `mapstructure:"acceleration_mps2" validate:"gt=0"`
	MaxRudderRad           float64 `mapstructure:"max_rudder_rad" validate:"gt=0"`
	RudderRateRadPerS      float64 `mapstructure:"rudder_rate_rad_per_s" validate:"gt=0"`
	YawRateRadPerS         float64 `mapstructure:"yaw_rate_rad_per_s" validate:"gt=0"`
	PitchRateRadPerS       float64 `mapstructure:"pitch_rate_rad_per_s" validate:"gt=0"`
	PlanesEffectDeg        float64 `mapstructure:"planes_effect_deg"`
	NeutralBias            float64 `mapstructure:"neutral_vertical_bias_mps"`
	SnorkelDepthM          float64 `mapstructure:"snorkel_depth_m" validate:"gt=0"`
	SnorkelOffHysteresisM  float64 `mapstructure:"snorkel_off_hysteresis_m" validate:"gt=0"`
	SnorkelSpeedMultiplier float64 `mapstructure:"snorkel_speed_multiplier"`
	RechargePerS           float64 `mapstructure:"recharge_per_s"`
	DrainPerThrottleS      float64 `mapstructure:"drain_per_throttle_s"`
	HighSpeedMultiplier    float64 `mapstructure:"high_speed_multiplier"`
	CrushDepthM            float64 `mapstructure:"crush_depth_m" validate:"gt=0"`
	CrushDps               float64 `mapstructure:"crush_dps"`
	BlowUpwardMps          float64 `mapstructure:"blow_upward_mps"`
	BlowDurationS          float64 `mapstructure:"blow_duration_s" validate:"gt=0"`
	MagazineSize           int     `mapstructure:"magazine_size" validate:"gt=0"`
	ReloadBatteryCostPerTorp float64 `mapstructure:"reload_battery_cost_per_torp"`
	MaxFuelUnits           float64 `mapstructure:"max_fuel_units" validate:"gt=0"`
	RespawnCooldownS       float64 `mapstructure:"respawn_cooldown_s" validate:"gt=0"`
	MaxSubsPerUser         int     `mapstructure:"max_subs_per_user" validate:"gt=0"`
	NoseOffsetM            float64 `mapstructure:"nose_offset_m" validate:"gt=0"`
	WeatherScanCost        float64 `mapstructure:"weather_scan_battery_cost"`
	WeatherScanRangeM      float64 `mapstructure:"weather_scan_max_range_m" validate:"gt=0"`
	WeatherScanNoiseDurS   float64 `mapstructure:"weather_scan_noise_duration_s"`
	WeatherScanRngSigmaM   float64 `mapstructure:"weather_scan_range_sigma_m"`
	WeatherScanBrgSigmaDeg float64 `mapstructure:"weather_scan_bearing_sigma_deg"`
	ScoreBaseRatePerS      float64 `mapstructure:"score_base_rate_per_s"`
	ScoreKillMultiplier    float64 `mapstructure:"score_kill_multiplier"`
}

// TorpedoConfig tunes torpedo dynamics, range, and fuzing.
type TorpedoConfig struct {
	MinSpeedMps           float64 `mapstructure:"min_speed_mps"`
	MaxSpeedMps           float64 `mapstructure:"max_speed_mps" validate:"gt=0"`
	AccelMps2             float64 `mapstructure:"accel_mps2" validate:"gt=0"`
	TurnRateRadPerS       float64 `mapstructure:"turn_rate_rad_per_s" validate:"gt=0"`
	DepthRateMps          float64 `mapstructure:"depth_rate_mps" validate:"gt=0"`
	DrainPerMpsPerS       float64 `mapstructure:"drain_per_mps_per_s"`
	BatteryCostPer100m    float64 `mapstructure:"battery_cost_per_100m"`
	MaxRangeM             float64 `mapstructure:"max_range_m" validate:"gt=0"`
	ArmingDelayS          float64 `mapstructure:"arming_delay_s"`
	ProximityFuzeM        float64 `mapstructure:"proximity_fuze_m" validate:"gt=0"`
	MinSafeDistanceM      float64 `mapstructure:"min_safe_distance_m" validate:"gt=0"`
	BlastRadiusM          float64 `mapstructure:"blast_radius_m" validate:"gt=0"`
	PingIntervalS         float64 `mapstructure:"ping_interval_s" validate:"gt=0"`
	ActivePingCost        float64 `mapstructure:"active_ping_cost"`
	MinBatteryForPing     float64 `mapstructure:"min_battery_for_ping"`
	ManualPingDefaultRangeM float64 `mapstructure:"manual_ping_default_range_m" validate:"gt=0"`
	ManualPingMaxRangeM   float64 `mapstructure:"manual_ping_max_range_m" validate:"gt=0"`
	ManualPingBeamDeg     float64 `mapstructure:"manual_ping_beam_deg" validate:"gt=0"`
	ManualPingNoiseM      float64 `mapstructure:"manual_ping_noise_m"`
}

// SonarConfig tunes passive/active detection.
type SonarConfig struct {
	ReportIntervalMinS     float64 `mapstructure:"report_interval_min_s"`
	ReportIntervalMaxS     float64 `mapstructure:"report_interval_max_s"`
	BaseSNR                float64 `mapstructure:"base_snr"`
	SpeedNoiseGain         float64 `mapstructure:"speed_noise_gain"`
	SnorkelBonus           float64 `mapstructure:"snorkel_bonus"`
	BlowBonus              float64 `mapstructure:"blow_bonus"`
	ScannerNoiseBonus      float64 `mapstructure:"scanner_noise_bonus"`
	FalloffSubSub          float64 `mapstructure:"falloff_per_km_sub_sub"`
	FalloffTorpSub         float64 `mapstructure:"falloff_per_km_torp_sub"`
	FalloffSubTorp         float64 `mapstructure:"falloff_per_km_sub_torp"`
	SubTorpRangeCapFactor  float64 `mapstructure:"sub_torp_range_cap_factor"`
	ActiveMaxRangeM        float64 `mapstructure:"active_max_range_m" validate:"gt=0"`
	BlowContactRangeM      float64 `mapstructure:"blow_contact_range_m" validate:"gt=0"`
	CloudCloseHearRangeM   float64 `mapstructure:"cloud_close_hear_range_m" validate:"gt=0"`
	OutsideRingAttenuationDb float64 `mapstructure:"outside_ring_attenuation_db"`
	ThresholdSub           float64 `mapstructure:"threshold_sub"`
	ThresholdTorpAsTarget  float64 `mapstructure:"threshold_torp_as_target"`
	ThresholdTorpObserver  float64 `mapstructure:"threshold_torp_observer"`
	BearingJitterDeg       float64 `mapstructure:"bearing_jitter_deg"`
	ShallowJitterClampDeg  float64 `mapstructure:"shallow_jitter_clamp_deg"`
	ShallowDepthM          float64 `mapstructure:"shallow_depth_m"`
	RangeShortM            float64 `mapstructure:"range_class_short_m" validate:"gt=0"`
	RangeMediumM           float64 `mapstructure:"range_class_medium_m" validate:"gt=0"`
	TorpObserverRangeM     float64 `mapstructure:"torp_observer_range_m" validate:"gt=0"`
	TorpObserverBeamDeg    float64 `mapstructure:"torp_observer_beam_deg"`
	TorpAutoPingBeamDeg    float64 `mapstructure:"torp_auto_ping_beam_deg"`
	PingMinBattery         float64 `mapstructure:"ping_min_battery"`
	PingMaxAngleDeg        float64 `mapstructure:"ping_max_angle_deg"`
	PingBaseCost           float64 `mapstructure:"ping_base_cost"`
	PingCostPerDeg         float64 `mapstructure:"ping_cost_per_deg"`
	PingCostPer100m        float64 `mapstructure:"ping_cost_per_100m"`
	PingCooldownS          float64 `mapstructure:"ping_cooldown_s" validate:"gt=0"`
	SoundSpeedMps          float64 `mapstructure:"sound_speed_mps" validate:"gt=0"`
	EchoBearingSigmaDeg    float64 `mapstructure:"echo_bearing_sigma_deg"`
	EchoRangeSigmaM        float64 `mapstructure:"echo_range_sigma_m"`
	SnorkelEchoBonus       float64 `mapstructure:"snorkel_echo_bonus"`
	BeamFocusMaxBonus      float64 `mapstructure:"beam_focus_max_bonus"`
}

// WeatherConfig tunes the dynamic hazard-cloud field.
type WeatherConfig struct {
	BaseCount           int     `mapstructure:"base_count" validate:"gt=0"`
	MaxCountFactor       float64 `mapstructure:"max_count_factor" validate:"gt=0"`
	AnnulusInnerM        float64 `mapstructure:"annulus_inner_m"`
	AnnulusOuterM        float64 `mapstructure:"annulus_outer_m"`
	MinAttenuationDb     float64 `mapstructure:"min_attenuation_db"`
	MaxAttenuationDb     float64 `mapstructure:"max_attenuation_db"`
	MinDamageDps         float64 `mapstructure:"min_damage_dps"`
	MaxDamageDps         float64 `mapstructure:"max_damage_dps"`
	MinRadiusM           float64 `mapstructure:"min_radius_m" validate:"gt=0"`
	MaxRadiusM           float64 `mapstructure:"max_radius_m" validate:"gt=0"`
	ExtendMarginM        float64 `mapstructure:"extend_margin_m"`
	LocalSpawnEnabled    bool    `mapstructure:"local_spawn_enabled"`
	LocalFarMarginM      float64 `mapstructure:"local_far_margin_m"`
	LocalMinClouds       int     `mapstructure:"local_min_clouds"`
	LocalInnerOffsetM    float64 `mapstructure:"local_inner_offset_m"`
	LocalOuterOffsetM    float64 `mapstructure:"local_outer_offset_m"`
	LocalCloudTTLs       float64 `mapstructure:"local_cloud_ttl_s"`
}

// FuelerConfig tunes fueler spawning and refuel transfer.
type FuelerConfig struct {
	MaxFuelUnits     float64 `mapstructure:"max_fuel_units" validate:"gt=0"`
	SpawnMinKm       float64 `mapstructure:"spawn_min_km"`
	SpawnMaxKm       float64 `mapstructure:"spawn_max_km"`
	ProximityM       float64 `mapstructure:"proximity_m" validate:"gt=0"`
	WarmupS          float64 `mapstructure:"warmup_s"`
	RefuelRatePerS   float64 `mapstructure:"refuel_rate_per_s" validate:"gt=0"`
	LifetimeS        float64 `mapstructure:"lifetime_s" validate:"gt=0"`
	FirstUseExpiryS  float64 `mapstructure:"first_use_expiry_s" validate:"gt=0"`
}

// EventConfig tunes the per-user event fabric.
type EventConfig struct {
	QueueCapacity     int     `mapstructure:"queue_capacity" validate:"gt=0"`
	SnapshotIntervalS float64 `mapstructure:"snapshot_interval_s" validate:"gt=0"`
	KeepaliveS        float64 `mapstructure:"keepalive_s" validate:"gt=0"`
}

// Config is the top-level configuration document.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	World     WorldConfig     `mapstructure:"world"`
	Submarine SubmarineConfig `mapstructure:"submarine"`
	Torpedo   TorpedoConfig   `mapstructure:"torpedo"`
	Sonar     SonarConfig     `mapstructure:"sonar"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Fueler    FuelerConfig    `mapstructure:"fueler"`
	Events    EventConfig     `mapstructure:"events"`
}

// Load reads configuration from multiple sources with priority:
//  1. Environment variables (SUBWAR_ prefix, highest priority)
//  2. The config file at configPath, if any
//  3. Defaults (lowest priority)
//
// An environment variable only takes effect for a key the config file
// also sets: viper's Unmarshal does not see environment-only keys.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/subwar")
	}

	v.SetEnvPrefix("SUBWAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply defaults for any value the file/environment left unset.
	SetDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error, for use in main.go.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
