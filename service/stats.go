package service

import (
	"math"
	"sort"

	"github.com/Jamesscott34/DevopsCA/models"
)

const topBooksLimit = 5

type BookStats struct {
	TotalBooks       int           `json:"totalBooks"`
	ReadBooks        int           `json:"readBooks"`
	UnreadBooks      int           `json:"unreadBooks"`
	ReadPercentage   float64       `json:"readPercentage"`
	UnreadPercentage float64       `json:"unreadPercentage"`
	MostReadBooks    []models.Book `json:"mostReadBooks"`
	MostViewedBooks  []models.Book `json:"mostViewedBooks"`
}

type UserStats struct {
	TotalUsers   int `json:"totalUsers"`
	AdminUsers   int `json:"adminUsers"`
	RegularUsers int `json:"regularUsers"`
}

type NotificationStats struct {
	TotalNotifications  int            `json:"totalNotifications"`
	ReadNotifications   int            `json:"readNotifications"`
	UnreadNotifications int            `json:"unreadNotifications"`
	ByType              map[string]int `json:"byType"`
}

type SystemStats struct {
	BookStats         BookStats         `json:"bookStats"`
	UserStats         UserStats         `json:"userStats"`
	NotificationStats NotificationStats `json:"notificationStats"`
}

// ComputeBookStats projects read/unread counts, percentages and the top-5
// rankings from the given books. Percentages are 0 for an empty catalog and
// rounded to two decimals otherwise. Ties in the rankings keep input order.
func ComputeBookStats(books []models.Book) BookStats {
	stats := BookStats{TotalBooks: len(books)}
	for _, b := range books {
		if b.IsRead {
			stats.ReadBooks++
		} else {
			stats.UnreadBooks++
		}
	}
	if stats.TotalBooks > 0 {
		stats.ReadPercentage = roundPercent(float64(stats.ReadBooks) / float64(stats.TotalBooks) * 100)
		stats.UnreadPercentage = roundPercent(float64(stats.UnreadBooks) / float64(stats.TotalBooks) * 100)
	}

	var read []models.Book
	for _, b := range books {
		if b.IsRead {
			read = append(read, b)
		}
	}
	stats.MostReadBooks = topByViewCount(read)
	stats.MostViewedBooks = topByViewCount(books)
	return stats
}

func ComputeUserStats(users []models.User) UserStats {
	stats := UserStats{TotalUsers: len(users)}
	for _, u := range users {
		if u.IsAdmin() {
			stats.AdminUsers++
		}
	}
	stats.RegularUsers = stats.TotalUsers - stats.AdminUsers
	return stats
}

func ComputeNotificationStats(notifications []models.Notification) NotificationStats {
	stats := NotificationStats{
		TotalNotifications: len(notifications),
		ByType:             make(map[string]int, len(models.ValidNotificationTypes)),
	}
	for _, t := range models.ValidNotificationTypes {
		stats.ByType[t] = 0
	}
	for _, n := range notifications {
		if n.IsRead {
			stats.ReadNotifications++
		} else {
			stats.UnreadNotifications++
		}
		stats.ByType[n.Type]++
	}
	return stats
}

func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}

func topByViewCount(books []models.Book) []models.Book {
	top := make([]models.Book, len(books))
	copy(top, books)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].ViewCount > top[j].ViewCount
	})
	if len(top) > topBooksLimit {
		top = top[:topBooksLimit]
	}
	return top
}
