package fitactivity

import (
	"fmt"
	"math"
	"strings"
)

// BuildTrainingNotes turns extracted metrics into a readable training summary.
func BuildTrainingNotes(s *Summary) string {
	if s == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s (%s)\n", s.Sport, s.SubSport)
	if !s.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Distance %.1f km\n",
		formatDuration(s.ElapsedSeconds),
		s.DistanceMeters/1000.0,
	)

	fmt.Fprintf(
		&b,
		"Power %.0f avg / %.0f NP / %.0f max W | Work %.0f kJ | VI %.2f\n",
		s.AvgPowerWatts,
		s.NormalizedPower,
		s.MaxPowerWatts,
		s.WorkKilojoules,
		s.VariabilityIndex,
	)
	fmt.Fprintf(
		&b,
		"HR %.0f avg / %.0f max bpm | Cadence %.0f avg / %.0f max rpm | Speed %.1f avg / %.1f max km/h\n",
		s.AvgHeartRate,
		s.MaxHeartRate,
		s.AvgCadence,
		s.MaxCadence,
		mpsToKmh(s.AvgSpeedMps),
		mpsToKmh(s.MaxSpeedMps),
	)

	if s.FTPWatts > 0 {
		fmt.Fprintf(
			&b,
			"Load IF %.2f | TSS %.0f | FTP %.0f W (%s)\n",
			s.IntensityFactor,
			s.TrainingStress,
			s.FTPWatts,
			s.FTPSource,
		)
	} else {
		fmt.Fprintf(&b, "Load IF/TSS unavailable (FTP not provided and could not be estimated)\n")
	}
	if s.Best20MinPower > 0 {
		fmt.Fprintf(&b, "Best 20 min power: %.0f W\n", s.Best20MinPower)
	}
	if s.PowerHRDecoupling != 0 && s.VariabilityIndex <= 1.10 {
		fmt.Fprintf(&b, "Power:HR decoupling: %+.1f%%\n", s.PowerHRDecoupling)
	} else if s.VariabilityIndex > 1.10 {
		fmt.Fprintf(&b, "Power:HR decoupling: not reliable for high-variability sessions (VI %.2f)\n", s.VariabilityIndex)
	}

	if len(s.PowerZones) > 0 {
		b.WriteString("\nPower Zone Distribution\n")
		for _, z := range s.PowerZones {
			if z.Seconds <= 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", z.Zone, formatDuration(z.Seconds), z.Percentage)
		}
	}

	b.WriteString("\nInterval Execution\n")
	if s.Intervals.WorkCount > 0 {
		fmt.Fprintf(
			&b,
			"- Detected %d primary work intervals at %.0f W for %s on average.\n",
			s.Intervals.WorkCount,
			s.Intervals.AvgWorkPowerWatts,
			formatDuration(s.Intervals.AvgWorkDurationSeconds),
		)
		if s.Intervals.RecoveryCount > 0 {
			fmt.Fprintf(
				&b,
				"- Recovery intervals: %d reps at %.0f W for %s.\n",
				s.Intervals.RecoveryCount,
				s.Intervals.AvgRecoveryPowerWatts,
				formatDuration(s.Intervals.AvgRecoveryDurationSeconds),
			)
		}
		fmt.Fprintf(
			&b,
			"- Work interval trend: power %+.1f%% (first to last interval).\n",
			s.Intervals.WorkPowerChangePct,
		)
	} else {
		b.WriteString("- No repeating hard interval structure was confidently detected from lap data.\n")
	}

	b.WriteString("\nCoaching Notes\n")
	b.WriteString("- ")
	b.WriteString(coachingAssessment(s))
	b.WriteString("\n- ")
	b.WriteString(nextSessionSuggestion(s))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

func coachingAssessment(s *Summary) string {
	if s == nil {
		return "No assessment available."
	}
	if s.Intervals.WorkCount >= 3 {
		switch {
		case math.Abs(s.Intervals.WorkPowerChangePct) <= 3:
			return "Execution was controlled with minimal fade; pacing and repeatability were strong."
		case s.Intervals.WorkPowerChangePct < -8:
			return "Late-session fade suggests the session sat near your current limit; consider a bit more recovery before the next high-intensity day."
		default:
			return "Interval consistency was acceptable with moderate fatigue signals; target smoother pacing in the final reps."
		}
	}
	if s.IntensityFactor >= 0.9 {
		return "High-intensity load for this duration; prioritize sleep and fueling to absorb the session."
	}
	return "Aerobic load appears manageable and supports base development."
}

func nextSessionSuggestion(s *Summary) string {
	if s == nil {
		return "No recommendation available."
	}
	if s.Intervals.WorkCount >= 4 && math.Abs(s.Intervals.WorkPowerChangePct) <= 3 {
		return "If recovery is good, progress by adding one work interval or increasing targets by 2-3%."
	}
	if s.Intervals.WorkCount >= 4 && s.Intervals.WorkPowerChangePct < -8 {
		return "Repeat this structure before progressing, with steadier opening intervals to reduce end-of-session drop-off."
	}
	if s.IntensityFactor >= 1.0 {
		return "Follow with an easier endurance day (Z1-Z2) to consolidate adaptations."
	}
	return "Maintain consistent endurance volume and revisit this workout once cadence and HR stability improve."
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	sec := int(math.Round(seconds))
	h := sec / 3600
	m := (sec % 3600) / 60
	rem := sec % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, rem)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, rem)
	}
	return fmt.Sprintf("%ds", rem)
}

func mpsToKmh(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * 3.6
}
