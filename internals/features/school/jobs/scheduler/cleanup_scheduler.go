package scheduler

import (
	"log"
	"time"

	"gorm.io/gorm"

	"sekolahku_backend/internals/features/school/jobs/service"
)

// StartBatchJobCleanupScheduler menyapu batch job terminal yang melewati
// retensi (30 hari). Jalan tiap 24 jam di goroutine sendiri.
func StartBatchJobCleanupScheduler(db *gorm.DB) {
	go func() {
		svc := service.NewBatchJobService(db, nil)
		for {
			log.Println("[CLEANUP] Menjalankan pembersihan batch_jobs...")

			removed, err := svc.CleanupExpired()
			if err != nil {
				log.Printf("[CLEANUP ERROR] Gagal hapus batch job: %v", err)
			} else if removed > 0 {
				log.Printf("[CLEANUP] %d batch job kadaluarsa dihapus", removed)
			} else {
				log.Println("[CLEANUP] Tidak ada batch job yang memenuhi syarat dihapus")
			}

			time.Sleep(24 * time.Hour)
		}
	}()
}
