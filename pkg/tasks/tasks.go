// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// IngestTask 表示一个等待摄取的文档任务，文件本体已存放在对象存储中。
type IngestTask struct {
	ObjectName string `json:"object_name"`
	Filename   string `json:"filename"`
}
