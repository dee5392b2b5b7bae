package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"fbadmin/internal/models"
	"fbadmin/internal/services"
	"fbadmin/pkg/config"
	"fbadmin/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultRoleName = "普通用户"

// seedData 初始化种子数据
func seedData(db *gorm.DB, cfg *config.Config) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	dept, err := createRootDept(db)
	if err != nil {
		return fmt.Errorf("创建根部门失败: %w", err)
	}

	perms, err := initializePermissions(db, cfg.Server.APIPrefix)
	if err != nil {
		return fmt.Errorf("初始化权限失败: %w", err)
	}

	role, err := createDefaultRole(db, perms)
	if err != nil {
		return fmt.Errorf("创建默认角色失败: %w", err)
	}

	if _, err := createUser(db, "admin", "超级管理员", getAdminPassword(), dept, true, nil); err != nil {
		return fmt.Errorf("创建默认管理员失败: %w", err)
	}
	testUser, err := createUser(db, "test", "测试用户", getAdminPassword(), dept, false, role)
	if err != nil {
		return fmt.Errorf("创建测试用户失败: %w", err)
	}

	if err := initializePolicies(db, cfg.Server.APIPrefix, testUser); err != nil {
		return fmt.Errorf("初始化策略失败: %w", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createRootDept 创建根部门
func createRootDept(db *gorm.DB) (*models.Dept, error) {
	var dept models.Dept
	err := db.Where("parent_id IS NULL AND del_flag = ?", false).Order("id").First(&dept).Error
	if err == nil {
		return &dept, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dept = models.Dept{Name: "总部", Status: models.StatusEnable}
	if err := db.Create(&dept).Error; err != nil {
		return nil, err
	}
	logger.GetLogger().Info("根部门创建成功")
	return &dept, nil
}

// initializePermissions 初始化菜单与接口权限，按 code 幂等
func initializePermissions(db *gorm.DB, apiPrefix string) ([]models.Permission, error) {
	str := func(s string) *string { return &s }

	type seed struct {
		perm   models.Permission
		parent string
	}
	seeds := []seed{
		{perm: models.Permission{Title: "系统管理", Name: "System", Type: models.PermissionTypeDirectory, Code: "sys", Icon: str("setting"), Path: str("/system"), Sort: 1}},
		{perm: models.Permission{Title: "部门管理", Name: "SysDept", Type: models.PermissionTypeMenu, Code: "sys:dept", Icon: str("apartment"), Path: str("/system/dept"), Component: str("/system/dept/index"), Sort: 1}, parent: "sys"},
		{perm: models.Permission{Title: "部门列表", Type: models.PermissionTypeAPI, Code: "sys:dept:list", Method: str("GET"), Path: str(apiPrefix + "/sys/depts/tree")}, parent: "sys:dept"},
		{perm: models.Permission{Title: "日志管理", Name: "Log", Type: models.PermissionTypeDirectory, Code: "log", Icon: str("file-text"), Path: str("/log"), Sort: 2}},
		{perm: models.Permission{Title: "登录日志", Name: "LoginLog", Type: models.PermissionTypeMenu, Code: "log:login", Path: str("/log/login"), Component: str("/log/login/index"), Sort: 1}, parent: "log"},
		{perm: models.Permission{Title: "登录日志列表", Type: models.PermissionTypeAPI, Code: "log:login:list", Method: str("GET"), Path: str(apiPrefix + "/logs/login")}, parent: "log:login"},
	}

	byCode := map[string]*models.Permission{}
	result := make([]models.Permission, 0, len(seeds))
	for _, s := range seeds {
		perm := s.perm
		perm.Status = models.StatusEnable
		perm.Visible = true
		if s.parent != "" {
			if parent, ok := byCode[s.parent]; ok {
				perm.ParentID = &parent.ID
			}
		}
		if err := db.Where(models.Permission{Code: perm.Code}).FirstOrCreate(&perm).Error; err != nil {
			return nil, err
		}
		byCode[perm.Code] = &perm
		result = append(result, perm)
	}
	return result, nil
}

// createDefaultRole 创建默认角色并关联权限
func createDefaultRole(db *gorm.DB, perms []models.Permission) (*models.Role, error) {
	var role models.Role
	err := db.Where("name = ?", defaultRoleName).First(&role).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = models.Role{
		Name:        defaultRoleName,
		DataScope:   models.DataScopeDeptAndBelow,
		Status:      models.StatusEnable,
		Permissions: perms,
	}
	if err := db.Create(&role).Error; err != nil {
		return nil, err
	}
	logger.GetLogger().Info("默认角色创建成功")
	return &role, nil
}

// createUser 创建用户，已存在时跳过
func createUser(db *gorm.DB, username, nickname, password string, dept *models.Dept, superuser bool, role *models.Role) (*models.User, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err == nil {
		logger.GetLogger().Infof("用户 %s 已存在，跳过创建", username)
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		UUID:        uuid.NewString(),
		Username:    username,
		Nickname:    nickname,
		Email:       username + "@example.com",
		Status:      models.StatusEnable,
		IsSuperuser: superuser,
		IsStaff:     superuser,
		DeptID:      &dept.ID,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if role != nil {
		user.Roles = []models.Role{*role}
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	logger.GetLogger().Infof("用户 %s 创建成功", username)
	return &user, nil
}

// initializePolicies 策略表为空时写入默认角色的接口规则
func initializePolicies(db *gorm.DB, apiPrefix string, member *models.User) error {
	var count int64
	if err := db.Model(&models.CasbinRule{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	policies := services.NewPolicyService(db)
	ctx := context.Background()
	rules := [][]string{
		{models.CasbinPolicy, defaultRoleName, apiPrefix + "/sys/depts/tree", "GET", "allow"},
		{models.CasbinPolicy, defaultRoleName, apiPrefix + "/logs/login", "GET", "allow"},
		{models.CasbinGrouping, member.UUID, defaultRoleName},
	}
	for _, rule := range rules {
		if err := policies.AddRule(ctx, rule[0], rule[1:]...); err != nil {
			return err
		}
	}
	logger.GetLogger().Info("默认策略规则写入成功")
	return nil
}

// getAdminPassword 默认账号的初始密码
func getAdminPassword() string {
	if pw := os.Getenv("ADMIN_INIT_PASSWORD"); pw != "" {
		return pw
	}
	return "123456"
}
