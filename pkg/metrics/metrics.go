package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration HTTP 请求耗时（按路由模板、方法、状态码）
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "yoklama",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// SessionsOpened 新建的考勤会话数
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yoklama",
		Name:      "attendance_sessions_opened_total",
		Help:      "Number of attendance sessions created.",
	})

	// SessionsFinalized 已定稿的考勤会话数
	SessionsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yoklama",
		Name:      "attendance_sessions_finalized_total",
		Help:      "Number of attendance sessions finalized.",
	})

	// RecordsMarked 写入的考勤记录（按结果：created/updated/conflict）
	RecordsMarked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yoklama",
		Name:      "attendance_records_marked_total",
		Help:      "Attendance record writes by outcome.",
	}, []string{"outcome"})

	// SMSSent 提交到短信网关的消息数
	SMSSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "yoklama",
		Name:      "sms_messages_sent_total",
		Help:      "Number of SMS messages submitted to the gateway.",
	})
)
