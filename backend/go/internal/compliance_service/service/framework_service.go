package service

import (
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// FrameworkFile 是框架 YAML 文件的结构。
type FrameworkFile struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Controls    []struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Category    string `yaml:"category"`
	} `yaml:"controls"`
}

// ParseFramework 解析框架 YAML，version 缺省为 "1.0"。
func ParseFramework(data []byte) (*models.ComplianceFramework, error) {
	var f FrameworkFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: 解析框架 YAML 失败: %v", ErrInvalidArgument, err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("%w: 框架缺少 name", ErrInvalidArgument)
	}
	fw := &models.ComplianceFramework{
		Name:        f.Name,
		Version:     f.Version,
		Description: f.Description,
	}
	if fw.Version == "" {
		fw.Version = "1.0"
	}
	for i, c := range f.Controls {
		if c.ID == "" || c.Title == "" {
			return nil, fmt.Errorf("%w: 第 %d 个控制项缺少 id 或 title", ErrInvalidArgument, i+1)
		}
		fw.Controls = append(fw.Controls, models.FrameworkControl{
			ControlID:   c.ID,
			Title:       c.Title,
			Description: c.Description,
			Category:    c.Category,
		})
	}
	return fw, nil
}

// ImportFramework 导入框架；同名框架已存在时直接返回已有的框架，created 为 false。
func (s *Service) ImportFramework(ctx context.Context, data []byte) (fw *models.ComplianceFramework, created bool, err error) {
	parsed, err := ParseFramework(data)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.store.GetFrameworkByName(ctx, parsed.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	if err := s.store.CreateFramework(ctx, parsed); err != nil {
		return nil, false, fmt.Errorf("保存框架 '%s' 失败: %w", parsed.Name, err)
	}
	fw, err = s.store.GetFramework(ctx, parsed.ID)
	return fw, err == nil, err
}

// ImportFrameworkFile 从文件导入框架。
func (s *Service) ImportFrameworkFile(ctx context.Context, path string) (*models.ComplianceFramework, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("读取框架文件 '%s' 失败: %w", path, err)
	}
	return s.ImportFramework(ctx, data)
}

// ImportAllFrameworks 按文件名顺序导入目录下所有匹配 pattern 的框架文件。
// 目录不存在时返回空结果。
func (s *Service) ImportAllFrameworks(ctx context.Context, dir, pattern string) ([]models.ComplianceFramework, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: 无效的框架文件模式 '%s': %v", ErrInvalidArgument, pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取框架目录失败: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && g.Match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []models.ComplianceFramework
	for _, name := range names {
		fw, created, err := s.ImportFrameworkFile(ctx, filepath.Join(dir, name))
		if err != nil {
			return out, err
		}
		if created {
			s.log.WithPayload(map[string]interface{}{"framework": fw.Name, "controls": len(fw.Controls)}).Info("Framework imported")
		}
		out = append(out, *fw)
	}
	return out, nil
}

// ListFrameworks 返回所有框架。
func (s *Service) ListFrameworks(ctx context.Context) ([]models.ComplianceFramework, error) {
	return s.store.ListFrameworks(ctx)
}

// GetFramework 返回框架及其控制项。
func (s *Service) GetFramework(ctx context.Context, id string) (*models.ComplianceFramework, error) {
	return s.store.GetFramework(ctx, id)
}

// GetFrameworkByName 按名称返回框架及其控制项。
func (s *Service) GetFrameworkByName(ctx context.Context, name string) (*models.ComplianceFramework, error) {
	return s.store.GetFrameworkByName(ctx, name)
}
