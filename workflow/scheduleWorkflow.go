package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/sirupsen/logrus"
)

var ErrInvalidFrequency = errors.New("frequency must be daily, weekly or monthly")

type ScheduleFrequency string

const (
	FrequencyDaily   ScheduleFrequency = "Daily"
	FrequencyWeekly  ScheduleFrequency = "Weekly"
	FrequencyMonthly ScheduleFrequency = "Monthly"
)

const (
	scheduleSetKey  = "asset:schedules"
	scheduleLockTTL = 5 * time.Second
)

func ParseScheduleFrequency(s string) (ScheduleFrequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// ScheduleUpdate acknowledges a periodic analysis request. The request is
// remembered in redis when it is available; redis problems are logged and
// never fail the call.
func ScheduleUpdate(ctx context.Context, location models.LocationKey, frequency string) (string, error) {
	freq, err := ParseScheduleFrequency(frequency)
	if err != nil {
		return "", err
	}
	message := fmt.Sprintf("Analysis scheduled for %s updates", freq)

	logger := config.GetLogger()
	member := fmt.Sprintf("%s|%s", location.CacheKey(), strings.ToLower(string(freq)))

	release, err := utils.ObtainLock(ctx, location.CacheKey(), "schedule", scheduleLockTTL, "workflow", "ScheduleUpdate")
	if err != nil {
		if !errors.Is(err, utils.ErrorServiceNotReady) {
			config.LogError(logger, "workflow", "ScheduleUpdate", "schedule not recorded", member, err)
		}
		return message, nil
	}
	defer release()

	if err := config.AddRedisSet(scheduleSetKey, member); err != nil {
		config.LogError(logger, "workflow", "ScheduleUpdate", "schedule not recorded", member, err)
		return message, nil
	}
	logger.WithFields(logrus.Fields{"location": location.String(), "frequency": freq}).Info("analysis scheduled")
	return message, nil
}

// ScheduledUpdates lists the recorded schedules, or nothing without redis.
func ScheduledUpdates() ([]string, error) {
	members, err := config.GetRedisSetMembers(scheduleSetKey)
	if members == nil {
		members = []string{}
	}
	return members, err
}
