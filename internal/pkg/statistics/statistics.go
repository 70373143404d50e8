package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ameibeauty/cards/app/models"
	"github.com/ameibeauty/cards/internal/pkg/cache"
	"github.com/ameibeauty/cards/internal/pkg/database"
)

const (
	CacheKeyCardsFeatured     = "statistics:cards:featured"
	CacheKeyEndorsementsDaily = "statistics:endorsements:daily:%s" // Format with date YYYY-MM-DD
	CacheExpiration           = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the directory page.
// The exact active-card total stays with the card repository; these are
// the cacheable extras.
type StatisticsData struct {
	FeaturedCards     int
	TodayEndorsements int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached aggregates are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached aggregates when they are stale.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded to refresh.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recounts all aggregates and stores them in the cache.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var featuredCards int64
	if err := db.Model(&models.Card{}).Where("is_active = ? AND is_featured = ?", true, true).Count(&featuredCards).Error; err != nil {
		log.Printf("Error counting featured cards: %v", err)
		return err
	}

	var todayEndorsements int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Endorsement{}).Where("shared_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayEndorsements).Error; err != nil {
		log.Printf("Error counting today's endorsements: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyCardsFeatured, strconv.FormatInt(featuredCards, 10), CacheExpiration); err != nil {
		log.Printf("Error caching featured card total: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyEndorsementsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayEndorsements, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's endorsements: %v", err)
		return err
	}

	return nil
}

// GetFeaturedCards returns the number of featured cards from cache or database.
func GetFeaturedCards() int {
	val, err := cache.Get(CacheKeyCardsFeatured)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.Card{}).Where("is_active = ? AND is_featured = ?", true, true).Count(&count).Error; err != nil {
			log.Printf("Error counting featured cards: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyCardsFeatured, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching featured card total: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayEndorsements returns the number of endorsements recorded today.
func GetTodayEndorsements() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyEndorsementsDaily, today)

	val, err := cache.Get(dailyKey)
	if err != nil {
		var count int64
		db := database.GetDB()
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.Endorsement{}).Where("shared_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's endorsements: %v", err)
			return 0
		}

		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's endorsements: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetStatisticsData returns all aggregates, refreshing the cache when stale.
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		FeaturedCards:     GetFeaturedCards(),
		TodayEndorsements: GetTodayEndorsements(),
	}
}
