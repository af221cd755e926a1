package config

// SetDefaults deep-merges the built-in tuning defaults into cfg,
// filling in only the fields the document/environment left at their
// zero value. This is the "defaults deep-merged with a user-supplied
// configuration document" behavior required of the core.
func SetDefaults(cfg *Config) {
	setDefaultString(&cfg.Server.Addr, ":8080")
	setDefaultString(&cfg.Server.DBPath, "./subwar.db")
	setDefaultFloat(&cfg.Server.TickRate, 10.0)

	setDefaultFloat(&cfg.World.RingRadiusM, 20000)
	setDefaultFloat(&cfg.World.SpawnMinSepM, 500)
	setDefaultFloat(&cfg.World.SpawnAnnulusM, 3000)

	s := &cfg.Submarine
	setDefaultFloat(&s.MaxSpeedMps, 12)
	setDefaultFloat(&s.AccelerationMps2, 0.4)
	setDefaultFloat(&s.MaxRudderRad, 0.6)
	setDefaultFloat(&s.RudderRateRadPerS, 0.5)
	setDefaultFloat(&s.YawRateRadPerS, 0.12)
	setDefaultFloat(&s.PitchRateRadPerS, 0.2)
	setDefaultFloat(&s.PlanesEffectDeg, 30)
	setDefaultFloat(&s.NeutralBias, 0.05)
	setDefaultFloat(&s.SnorkelDepthM, 15)
	setDefaultFloat(&s.SnorkelOffHysteresisM, 2)
	setDefaultFloat(&s.SnorkelSpeedMultiplier, 0.75)
	setDefaultFloat(&s.RechargePerS, 1.0)
	setDefaultFloat(&s.DrainPerThrottleS, 0.08)
	setDefaultFloat(&s.HighSpeedMultiplier, 3.0)
	setDefaultFloat(&s.CrushDepthM, 300)
	setDefaultFloat(&s.CrushDps, 10)
	setDefaultFloat(&s.BlowUpwardMps, 3.0)
	setDefaultFloat(&s.BlowDurationS, 8.0)
	setDefaultInt(&s.MagazineSize, 4)
	setDefaultFloat(&s.ReloadBatteryCostPerTorp, 15)
	setDefaultFloat(&s.MaxFuelUnits, 500)
	setDefaultFloat(&s.RespawnCooldownS, 7200)
	setDefaultInt(&s.MaxSubsPerUser, 3)
	setDefaultFloat(&s.NoseOffsetM, 12)
	setDefaultFloat(&s.WeatherScanCost, 10)
	setDefaultFloat(&s.WeatherScanRangeM, 8000)
	setDefaultFloat(&s.WeatherScanNoiseDurS, 20)
	setDefaultFloat(&s.WeatherScanRngSigmaM, 150)
	setDefaultFloat(&s.WeatherScanBrgSigmaDeg, 8)
	setDefaultFloat(&s.ScoreBaseRatePerS, 1.0)
	setDefaultFloat(&s.ScoreKillMultiplier, 0.5)

	tp := &cfg.Torpedo
	setDefaultFloat(&tp.MinSpeedMps, 8)
	setDefaultFloat(&tp.MaxSpeedMps, 28)
	setDefaultFloat(&tp.AccelMps2, 5.0)
	setDefaultFloat(&tp.TurnRateRadPerS, 0.3)
	setDefaultFloat(&tp.DepthRateMps, 3.0)
	setDefaultFloat(&tp.DrainPerMpsPerS, 0.05)
	setDefaultFloat(&tp.BatteryCostPer100m, 0.0) // disabled in the original; see DESIGN.md Open Question 1
	setDefaultFloat(&tp.MaxRangeM, 12000)
	setDefaultFloat(&tp.ArmingDelayS, 3.0)
	setDefaultFloat(&tp.ProximityFuzeM, 60)
	setDefaultFloat(&tp.MinSafeDistanceM, 150)
	setDefaultFloat(&tp.BlastRadiusM, 120)
	setDefaultFloat(&tp.PingIntervalS, 6.0)
	setDefaultFloat(&tp.ActivePingCost, 8)
	setDefaultFloat(&tp.MinBatteryForPing, 10)
	setDefaultFloat(&tp.ManualPingDefaultRangeM, 800)
	setDefaultFloat(&tp.ManualPingMaxRangeM, 1500)
	setDefaultFloat(&tp.ManualPingBeamDeg, 30)
	setDefaultFloat(&tp.ManualPingNoiseM, 20)

	sn := &cfg.Sonar
	setDefaultFloat(&sn.ReportIntervalMinS, 2.0)
	setDefaultFloat(&sn.ReportIntervalMaxS, 4.0)
	setDefaultFloat(&sn.BaseSNR, 10.0)
	setDefaultFloat(&sn.SpeedNoiseGain, 20.0)
	setDefaultFloat(&sn.SnorkelBonus, 15.0)
	setDefaultFloat(&sn.BlowBonus, 25.0)
	setDefaultFloat(&sn.ScannerNoiseBonus, 10.0)
	setDefaultFloat(&sn.FalloffSubSub, 2.0)
	setDefaultFloat(&sn.FalloffTorpSub, 2.5)
	setDefaultFloat(&sn.FalloffSubTorp, 2.0)
	setDefaultFloat(&sn.SubTorpRangeCapFactor, 0.8)
	setDefaultFloat(&sn.ActiveMaxRangeM, 4000)
	setDefaultFloat(&sn.BlowContactRangeM, 8000)
	setDefaultFloat(&sn.CloudCloseHearRangeM, 400)
	setDefaultFloat(&sn.OutsideRingAttenuationDb, 3.0)
	setDefaultFloat(&sn.ThresholdSub, 5.0)
	setDefaultFloat(&sn.ThresholdTorpAsTarget, 4.0)
	setDefaultFloat(&sn.ThresholdTorpObserver, 3.0)
	setDefaultFloat(&sn.BearingJitterDeg, 6.0)
	setDefaultFloat(&sn.ShallowJitterClampDeg, 1.0)
	setDefaultFloat(&sn.ShallowDepthM, 50)
	setDefaultFloat(&sn.RangeShortM, 1000)
	setDefaultFloat(&sn.RangeMediumM, 2500)
	setDefaultFloat(&sn.TorpObserverRangeM, 2000)
	setDefaultFloat(&sn.TorpObserverBeamDeg, 105)
	setDefaultFloat(&sn.TorpAutoPingBeamDeg, 15)
	setDefaultFloat(&sn.PingMinBattery, 10)
	setDefaultFloat(&sn.PingMaxAngleDeg, 120)
	setDefaultFloat(&sn.PingBaseCost, 5)
	setDefaultFloat(&sn.PingCostPerDeg, 0.05)
	setDefaultFloat(&sn.PingCostPer100m, 0.3)
	setDefaultFloat(&sn.PingCooldownS, 5.0)
	setDefaultFloat(&sn.SoundSpeedMps, 1500)
	setDefaultFloat(&sn.EchoBearingSigmaDeg, 8.0)
	setDefaultFloat(&sn.EchoRangeSigmaM, 60.0)
	setDefaultFloat(&sn.SnorkelEchoBonus, 8.0)
	setDefaultFloat(&sn.BeamFocusMaxBonus, 6.0)

	w := &cfg.Weather
	setDefaultInt(&w.BaseCount, 40)
	setDefaultFloat(&w.MaxCountFactor, 2.0)
	setDefaultFloat(&w.AnnulusInnerM, 0)
	setDefaultFloat(&w.AnnulusOuterM, 4000)
	setDefaultFloat(&w.MinAttenuationDb, 3)
	setDefaultFloat(&w.MaxAttenuationDb, 12)
	setDefaultFloat(&w.MinDamageDps, 1)
	setDefaultFloat(&w.MaxDamageDps, 8)
	setDefaultFloat(&w.MinRadiusM, 200)
	setDefaultFloat(&w.MaxRadiusM, 900)
	setDefaultFloat(&w.ExtendMarginM, 1500)
	w.LocalSpawnEnabled = true
	setDefaultFloat(&w.LocalFarMarginM, 2000)
	setDefaultInt(&w.LocalMinClouds, 2)
	setDefaultFloat(&w.LocalInnerOffsetM, 1000)
	setDefaultFloat(&w.LocalOuterOffsetM, 3000)
	setDefaultFloat(&w.LocalCloudTTLs, 600)

	f := &cfg.Fueler
	setDefaultFloat(&f.MaxFuelUnits, 2000)
	setDefaultFloat(&f.SpawnMinKm, 1)
	setDefaultFloat(&f.SpawnMaxKm, 3)
	setDefaultFloat(&f.ProximityM, 50)
	setDefaultFloat(&f.WarmupS, 120)
	setDefaultFloat(&f.RefuelRatePerS, 50)
	setDefaultFloat(&f.LifetimeS, 1200)
	setDefaultFloat(&f.FirstUseExpiryS, 300)

	e := &cfg.Events
	setDefaultInt(&e.QueueCapacity, 1000)
	setDefaultFloat(&e.SnapshotIntervalS, 1.0)
	setDefaultFloat(&e.KeepaliveS, 15.0)
}

func setDefaultFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

func setDefaultInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDefaultString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
