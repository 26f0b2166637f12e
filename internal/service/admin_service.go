package service

import (
	"docuseek-go/internal/model"
	"docuseek-go/internal/repository"
)

// UserListResponse 定义了用户列表 API 的分页响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// DocumentListResponse 定义了文档列表 API 的分页响应结构。
type DocumentListResponse struct {
	Content       []model.Document `json:"content"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
	Size          int              `json:"size"`
	Number        int              `json:"number"`
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	ListAllDocuments(page, size int) (*DocumentListResponse, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo repository.UserRepository
	docRepo  repository.DocumentRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, docRepo repository.DocumentRepository) AdminService {
	return &adminService{
		userRepo: userRepo,
		docRepo:  docRepo,
	}
}

// ListUsers 分页列出全部用户。
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	page, size = normalizePage(page, size)

	users, total, err := s.userRepo.FindWithPagination((page-1)*size, size)
	if err != nil {
		return nil, err
	}

	content := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		content = append(content, UserDetailResponse{
			UserID:    u.ID,
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05"),
		})
	}

	return &UserListResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

// ListAllDocuments 分页列出全部文档。
func (s *adminService) ListAllDocuments(page, size int) (*DocumentListResponse, error) {
	page, size = normalizePage(page, size)

	docs, total, err := s.docRepo.FindAllWithPagination((page-1)*size, size)
	if err != nil {
		return nil, err
	}

	return &DocumentListResponse{
		Content:       docs,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

func totalPages(total int64, size int) int {
	pages := int(total) / size
	if int(total)%size != 0 {
		pages++
	}
	return pages
}
