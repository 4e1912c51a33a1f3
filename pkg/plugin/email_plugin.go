package plugin

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/LENAX/crm-automation/pkg/logger"
)

// sendMailFunc 与smtp.SendMail签名一致，便于替换
type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailPlugin 邮件通知插件（对外导出）
// notification步骤和工作流失败通过SMTP投递；PluginData.Recipients非空时覆盖默认收件人
type EmailPlugin struct {
	name     string
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
	to       []string
	enabled  bool
	send     sendMailFunc
}

// NewEmailPlugin 创建邮件通知插件（对外导出）
func NewEmailPlugin() Plugin {
	return &EmailPlugin{
		name: "email",
		send: smtp.SendMail,
	}
}

// Name 插件名称（实现Plugin接口）
func (e *EmailPlugin) Name() string {
	return e.name
}

// Init 初始化插件（实现Plugin接口）
// 参数: smtp_host, smtp_port(默认25), username, password, from, to(逗号分隔，可选)
func (e *EmailPlugin) Init(params map[string]string) error {
	e.smtpHost = params["smtp_host"]
	if e.smtpHost == "" {
		return fmt.Errorf("smtp_host参数不能为空")
	}

	e.smtpPort = 25
	if portStr := params["smtp_port"]; portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return fmt.Errorf("smtp_port参数格式错误: %q", portStr)
		}
		e.smtpPort = port
	}

	e.username = params["username"]
	e.password = params["password"]

	e.from = params["from"]
	if e.from == "" {
		return fmt.Errorf("from参数不能为空")
	}

	// 默认收件人可以为空，此时只投递带收件人的通知
	e.to = splitAddresses(params["to"])

	e.enabled = true
	logger.Get().Info("✅ [EmailPlugin] 初始化完成", "smtp", fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort), "from", e.from, "to", e.to)
	return nil
}

// Execute 发送邮件（实现Plugin接口）
func (e *EmailPlugin) Execute(data any) error {
	if !e.enabled {
		return fmt.Errorf("邮件插件未初始化")
	}

	pluginData, ok := data.(PluginData)
	if !ok {
		return fmt.Errorf("插件数据类型错误: %T", data)
	}

	recipients := e.recipientsFor(pluginData)
	if len(recipients) == 0 {
		logger.Get().Warn("⚠️ [EmailPlugin] 没有收件人，跳过发送", "event", pluginData.Event, "workflow_id", pluginData.WorkflowID)
		return nil
	}

	subject := buildSubject(pluginData)
	message := e.buildMessage(recipients, subject, buildBody(pluginData))

	if err := e.deliver(recipients, message); err != nil {
		logger.Get().Error("❌ [EmailPlugin] 发送邮件失败", "event", pluginData.Event, "error", err)
		return err
	}

	logger.Get().Info("✅ [EmailPlugin] 邮件发送成功", "event", pluginData.Event, "subject", subject, "recipients", recipients)
	return nil
}

func (e *EmailPlugin) recipientsFor(data PluginData) []string {
	var out []string
	for _, r := range data.Recipients {
		// notification步骤的收件人可能是联系人名称而不是邮箱
		if strings.Contains(r, "@") {
			out = append(out, strings.TrimSpace(r))
		}
	}
	if len(out) > 0 {
		return out
	}
	return e.to
}

// buildSubject 构建邮件主题
func buildSubject(data PluginData) string {
	if data.Subject != "" {
		return data.Subject
	}
	switch data.Event {
	case EventNotificationSent:
		return fmt.Sprintf("[CRM通知] %s", data.WorkflowName)
	case EventWorkflowStarted:
		return fmt.Sprintf("[工作流启动] %s (%s)", data.WorkflowName, data.WorkflowID)
	case EventWorkflowCompleted:
		return fmt.Sprintf("[工作流完成] %s (%s)", data.WorkflowName, data.WorkflowID)
	case EventWorkflowFailed:
		return fmt.Sprintf("[工作流失败] %s (%s)", data.WorkflowName, data.WorkflowID)
	case EventWorkflowPaused:
		return fmt.Sprintf("[工作流暂停] %s (%s)", data.WorkflowName, data.WorkflowID)
	case EventWorkflowResumed:
		return fmt.Sprintf("[工作流恢复] %s (%s)", data.WorkflowName, data.WorkflowID)
	case EventStepFailed:
		return fmt.Sprintf("[步骤失败] %s - %s", data.WorkflowName, data.StepID)
	default:
		return fmt.Sprintf("[系统通知] %s", data.Event)
	}
}

// buildBody 构建邮件正文
func buildBody(data PluginData) string {
	var body strings.Builder
	if data.Message != "" {
		body.WriteString(data.Message)
		body.WriteString("\n\n")
	}
	body.WriteString(fmt.Sprintf("事件类型: %s\n", data.Event))
	if data.Status != "" {
		body.WriteString(fmt.Sprintf("状态: %s\n", data.Status))
	}
	if data.WorkflowID != "" {
		body.WriteString(fmt.Sprintf("工作流: %s (%s)\n", data.WorkflowName, data.WorkflowID))
	}
	if data.StepID != "" {
		body.WriteString(fmt.Sprintf("步骤: %s\n", data.StepID))
	}
	if data.Error != nil {
		body.WriteString(fmt.Sprintf("错误信息: %s\n", data.Error.Error()))
	}
	if len(data.Data) > 0 {
		body.WriteString("\n详细信息:\n")
		for k, v := range data.Data {
			body.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}
	return body.String()
}

func (e *EmailPlugin) deliver(recipients []string, message string) error {
	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)

	var auth smtp.Auth
	if e.username != "" && e.password != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.smtpHost)
		// 465端口需要先建立TLS连接
		if e.smtpPort == 465 {
			return e.sendTLS(addr, auth, recipients, message)
		}
	}
	return e.send(addr, auth, e.from, recipients, []byte(message))
}

// sendTLS 通过TLS发送邮件（用于465端口）
func (e *EmailPlugin) sendTLS(addr string, auth smtp.Auth, recipients []string, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.smtpHost})
	if err != nil {
		return fmt.Errorf("TLS连接失败: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP认证失败: %w", err)
	}
	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	for _, to := range recipients {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("设置收件人失败: %w", err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("获取数据写入器失败: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("关闭数据写入器失败: %w", err)
	}
	return client.Quit()
}

func (e *EmailPlugin) buildMessage(recipients []string, subject, body string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(recipients, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
