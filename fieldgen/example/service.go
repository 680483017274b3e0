package example

import (
	"log/slog"
	"net/http"
	"time"
)

// NewService 构造服务实例
// 被 @Field 标记的参数会生成同名私有字段，未标记的参数只参与构造逻辑
//
// @AutoFields
func NewService(
	logger *slog.Logger, // @Field
	client *http.Client, // @Field
	name string,
) *Service {
	s := newService(logger, client)
	s.logger.Info("服务已创建", "name", name)
	return s
}

// NewRegistry 值类型构造，关闭构造函数生成
//
// @AutoFields(ctor=false)
func NewRegistry(
	// @Field
	entries map[string]time.Duration,
	limit int, // @Field
) Registry {
	if limit <= 0 {
		limit = len(entries)
	}
	return Registry{entries: entries, limit: limit}
}
