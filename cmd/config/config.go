// Package config initializes viper configuration and constructs the
// library service from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/backup"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/filestore"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/mtime"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/queue"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/search"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/service"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

var cfgFile string

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "omniclipper")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("OMNICLIPPER")

	viper.SetDefault("data_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "omniclipper"))
	viper.SetDefault("port", 0)
	viper.SetDefault("backup_keep_count", 10)
	viper.SetDefault("queue.max_retries", queue.DefaultMaxRetries)
	viper.SetDefault("queue.base_delay", queue.DefaultBaseDelay)
	viper.SetDefault("queue.max_delay", queue.DefaultMaxDelay)

	_ = viper.ReadInConfig()
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/omniclipper/config.yaml)")
}

// DataDir returns the library root directory
func DataDir() string {
	return viper.GetString("data_dir")
}

// QueuePath returns the capture agent's queue document location
func QueuePath() string {
	return filepath.Join(DataDir(), "data", "sync-queue.json")
}

// NewLogger returns the process logger, quiet unless there are problems
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// NewBackupManager constructs the backup manager over the configured data
// directory.
func NewBackupManager(logger *logrus.Logger) (*backup.Manager, error) {
	return backup.NewManager(filepath.Join(DataDir(), "backups"), logrus.NewEntry(logger))
}

// InitService builds the full host-side service stack. Only failure to
// create the data root is fatal to the caller.
func InitService(logger *logrus.Logger) (*service.Service, error) {
	root := DataDir()
	if err := os.MkdirAll(filepath.Join(root, "data"), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	entry := logrus.NewEntry(logger)

	backups, err := NewBackupManager(logger)
	if err != nil {
		return nil, err
	}

	library, err := storage.NewLibraryStore(
		filepath.Join(root, "data", "library.json"), backups.Create, entry)
	if err != nil {
		return nil, err
	}

	files, err := filestore.New(root, entry)
	if err != nil {
		return nil, err
	}

	mtimes := mtime.New(filepath.Join(root, "data", "mtime.json"))

	// Search is optional; the library works without it.
	var index search.Fusion
	if idx, err := search.NewSQLiteIndex(filepath.Join(root, "data", "index.db")); err != nil {
		logger.WithError(err).Warn("search index unavailable")
	} else {
		index = idx
	}

	return service.New(library, files, mtimes, index, entry), nil
}

// QueueConfig returns the scheduler bounds from configuration
func QueueConfig() queue.Config {
	return queue.Config{
		MaxRetries: viper.GetInt("queue.max_retries"),
		BaseDelay:  viper.GetDuration("queue.base_delay"),
		MaxDelay:   viper.GetDuration("queue.max_delay"),
	}
}

// BackupKeepCount returns how many backups to retain on cleanup
func BackupKeepCount() int {
	return viper.GetInt("backup_keep_count")
}
