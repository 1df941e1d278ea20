package storage

import "os"

// SnapshotBytes returns the on-disk size of the SQLite snapshot at dbPath,
// including its WAL and shared-memory files. Missing files count as 0.
func SnapshotBytes(dbPath string) (int64, error) {
	if dbPath == "" {
		return 0, nil
	}
	var total int64
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}
