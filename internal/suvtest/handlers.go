package suvtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/suvclient/token"
	"golang.org/x/crypto/bcrypt"
)

const maxUpload = 5 << 20

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请输入用户名和密码")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "用户名或密码不能为空")
		return
	}

	s.mu.Lock()
	acc := s.findByName(req.Username)
	s.mu.Unlock()
	if acc == nil || bcrypt.CompareHashAndPassword(acc.PassHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	raw, err := s.signer.Issue(acc.ID, acc.Username, acc.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "系统错误")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(s.signer.TTL() / time.Second),
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token": raw,
		"user": map[string]any{
			"id":           acc.ID,
			"username":     acc.Username,
			"display_name": acc.DisplayName,
			"role":         acc.Role,
		},
	})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request, _ *token.Claims) {
	http.SetCookie(w, &http.Cookie{Name: TokenCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "已注销"})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, c *token.Claims) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       c.UserID,
			"username": c.Username,
			"role":     c.Role,
		},
	})
}

func (s *Server) listViolations(w http.ResponseWriter, r *http.Request, _ *token.Claims) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	date := q.Get("date")
	keyword := q.Get("keyword")

	s.mu.Lock()
	matched := []violation{}
	for i := len(s.violations) - 1; i >= 0; i-- {
		v := s.violations[i]
		if date != "" && v.CreatedAt.Format("2006-01-02") != date {
			continue
		}
		if keyword != "" && !containsAny(keyword, v.StudentName, v.ClassName, v.Dorm, v.Reason) {
			continue
		}
		matched = append(matched, *v)
	}
	s.mu.Unlock()

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  matched[start:end],
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(f, needle) {
			return true
		}
	}
	return false
}

func (s *Server) todayViolations(w http.ResponseWriter, _ *http.Request, _ *token.Claims) {
	today := s.now().Format("2006-01-02")

	s.mu.Lock()
	data := []violation{}
	for i := len(s.violations) - 1; i >= 0; i-- {
		if v := s.violations[i]; v.CreatedAt.Format("2006-01-02") == today {
			data = append(data, *v)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"date":  today,
		"count": len(data),
	})
}

var allowedPhotoExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func (s *Server) createViolation(w http.ResponseWriter, r *http.Request, c *token.Claims) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "请填写完整信息: "+err.Error())
		return
	}

	v := violation{
		Dorm:        r.FormValue("dorm"),
		StudentName: r.FormValue("student_name"),
		ClassName:   r.FormValue("class_name"),
		Period:      r.FormValue("period"),
		Reason:      r.FormValue("reason"),
		Department:  r.FormValue("department"),
		Inspector:   r.FormValue("inspector"),
	}
	for name, val := range map[string]string{
		"dorm": v.Dorm, "student_name": v.StudentName, "class_name": v.ClassName,
		"period": v.Period, "reason": v.Reason, "department": v.Department, "inspector": v.Inspector,
	} {
		if val == "" {
			writeError(w, http.StatusBadRequest, "请填写完整信息: "+name)
			return
		}
	}

	var ph *photo
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedPhotoExt[ext] {
			writeError(w, http.StatusBadRequest, "仅支持 JPG/PNG/GIF/WebP 格式的图片")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
		if err != nil || len(data) > maxUpload {
			writeError(w, http.StatusBadRequest, "照片大小不能超过 5MB")
			return
		}
		ct := http.DetectContentType(data)
		if !strings.HasPrefix(ct, "image/") {
			writeError(w, http.StatusBadRequest, "文件类型不合法")
			return
		}
		ph = &photo{contentType: ct, data: data}
	}

	s.mu.Lock()
	s.nextRecord++
	v.ID = s.nextRecord
	v.CreatedBy = c.UserID
	v.CreatedAt = s.now()
	if acc, _ := s.findByID(c.UserID); acc != nil {
		v.CreatorName = acc.DisplayName
	}
	if ph != nil {
		v.PhotoPath = fmt.Sprintf("%d_%d%s", v.CreatedAt.UnixNano(), c.UserID, ".img")
		s.photos[v.ID] = *ph
	}
	s.violations = append(s.violations, &v)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"id": v.ID, "message": "提交成功"})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) deleteViolation(w http.ResponseWriter, r *http.Request, _ *token.Claims) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "无效的记录 ID")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.violations {
		if v.ID == id {
			s.violations = append(s.violations[:i], s.violations[i+1:]...)
			delete(s.photos, id)
			writeJSON(w, http.StatusOK, map[string]string{"message": "删除成功"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "记录不存在")
}

func (s *Server) violationPhoto(w http.ResponseWriter, r *http.Request, _ *token.Claims) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "无效的记录 ID")
		return
	}

	s.mu.Lock()
	ph, found := s.photos[id]
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "照片不存在")
		return
	}
	w.Header().Set("Content-Type", ph.contentType)
	_, _ = w.Write(ph.data)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request, _ *token.Claims) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	var b strings.Builder
	b.WriteString("\xEF\xBB\xBF")
	b.WriteString("ID,宿舍号,姓名,班级,时间段,违纪原因,部门,执勤人,记录时间,录入人\n")

	s.mu.Lock()
	for _, v := range s.violations {
		if v.CreatedAt.Format("2006-01-02") != date {
			continue
		}
		reason := strings.ReplaceAll(v.Reason, `"`, `""`)
		reason = strings.ReplaceAll(reason, "\n", " ")
		fmt.Fprintf(&b, "%d,\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\"\n",
			v.ID, v.Dorm, v.StudentName, v.ClassName, v.Period, reason, v.Department, v.Inspector,
			v.CreatedAt.Format("2006-01-02 15:04:05"), v.CreatorName)
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"violations_%s.csv\"", date))
	_, _ = io.WriteString(w, b.String())
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request, _ *token.Claims) {
	today := s.now().Format("2006-01-02")

	s.mu.Lock()
	todayCount := 0
	for _, v := range s.violations {
		if v.CreatedAt.Format("2006-01-02") == today {
			todayCount++
		}
	}
	total, users := len(s.violations), len(s.accounts)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int{
		"today_count": todayCount,
		"total_count": total,
		"user_count":  users,
	})
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request, _ *token.Claims) {
	s.mu.Lock()
	data := make([]account, 0, len(s.accounts))
	for _, a := range s.accounts {
		data = append(data, *a)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, _ *token.Claims) {
	var body struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if body.Username == "" || len(body.Password) < 6 || (body.Role != "admin" && body.Role != "staff") {
		writeError(w, http.StatusBadRequest, "参数错误")
		return
	}

	s.mu.Lock()
	exists := s.findByName(body.Username) != nil
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusConflict, "用户名已存在")
		return
	}

	s.AddUser(body.Username, body.Password, body.DisplayName, body.Role)
	writeJSON(w, http.StatusOK, map[string]string{"message": "用户创建成功"})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, c *token.Claims) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "无效 ID")
		return
	}
	if id == c.UserID {
		writeError(w, http.StatusBadRequest, "不能删除自己")
		return
	}

	s.mu.Lock()
	if _, i := s.findByID(id); i >= 0 {
		s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "删除成功"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request, _ *token.Claims) {
	id, ok := pathID(r)
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Password) < 6 {
		writeError(w, http.StatusBadRequest, "密码至少6位")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "无效 ID")
		return
	}

	hash := hashPassword(body.Password)
	s.mu.Lock()
	acc, _ := s.findByID(id)
	if acc != nil {
		acc.PassHash = hash
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "密码重置成功"})
}
