package database

import (
	"io/fs"
	"strings"
	"testing"

	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"info":  gormlogger.Warn,
		"error": gormlogger.Error,
		"":      gormlogger.Warn,
	}
	for in, want := range cases {
		if got := gormLogLevel(in); got != want {
			t.Errorf("gormLogLevel(%q) = %v，期望 %v", in, got, want)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("读取内嵌迁移失败: %v", err)
	}
	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Errorf("迁移文件 up/down 数量不匹配: up=%d down=%d", up, down)
	}
}
