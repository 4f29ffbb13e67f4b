package db

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// CreateTask 落一行 doing 状态的任务记录，返回持久化任务ID。
func (s *Store) CreateTask(ctx context.Context, t *GenImageTaskDB) (uint, error) {
	t.TaskStatus = TaskStatusDoing
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return 0, err
	}
	return t.ID, nil
}

// SetTaskStatus 设置任务终态与错误信息。
// 只允许从 doing 迁移，终态之后的再次调用是空操作，保证终态恰好落一次。
func (s *Store) SetTaskStatus(ctx context.Context, id uint, status, errMsg string) error {
	return s.db.WithContext(ctx).Model(&GenImageTaskDB{}).
		Where("id = ? AND task_status = ?", id, TaskStatusDoing).
		Updates(map[string]any{"task_status": status, "err_msg": errMsg}).Error
}

// GetTask 按ID查询任务。
func (s *Store) GetTask(ctx context.Context, id uint) (*GenImageTaskDB, error) {
	var t GenImageTaskDB
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// AppendImages 在一个事务内写入一批结果图记录并引用任务。
// 任一条失败整体回滚，调用方将任务置为 failed。
func (s *Store) AppendImages(ctx context.Context, taskID uint, images []*SDImageDB) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, img := range images {
			img.TaskID = taskID
			if err := tx.Create(img).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTaskImages 列出任务的全部结果图。
func (s *Store) ListTaskImages(ctx context.Context, taskID uint) ([]SDImageDB, error) {
	var list []SDImageDB
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("created_at ASC").Find(&list).Error
	return list, err
}

// ListImages 分页倒序列出结果图。
// beforeUnix 非 0 时只返回该时间戳之前创建的记录，供前端瀑布流增量拉取。
func (s *Store) ListImages(ctx context.Context, page, pageSize int, beforeUnix int64) ([]SDImageDB, int64, error) {
	if page < 1 {
		page = 1
	}
	q := s.db.WithContext(ctx).Model(&SDImageDB{})
	if beforeUnix != 0 {
		q = q.Where("created_at < ?", time.Unix(beforeUnix, 0))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []SDImageDB
	err := q.Order("created_at DESC").
		Limit(pageSize).Offset(pageSize * (page - 1)).
		Find(&list).Error
	return list, total, err
}

// GetImage 按 uuid 查询单图，未找到返回 gorm.ErrRecordNotFound。
func (s *Store) GetImage(ctx context.Context, uuid string) (*SDImageDB, error) {
	var img SDImageDB
	if err := s.db.WithContext(ctx).Where("uuid = ?", uuid).First(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// DeleteImage 按 uuid 删除记录。
func (s *Store) DeleteImage(ctx context.Context, uuid string) error {
	return s.db.WithContext(ctx).Where("uuid = ?", uuid).Delete(&SDImageDB{}).Error
}
