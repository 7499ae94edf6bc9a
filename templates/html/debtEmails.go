package templates

import (
	"fmt"
)

// RenderMonthlyFeeEmail generates the HTML for the monthly fee collection notice
func RenderMonthlyFeeEmail(memberName, teamName string, feeAmount, totalDebt int64) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Monthly Fee Collected</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #16a34a 0%%, #15803d 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #374151; }
    .content h2 { color: #111827; margin-top: 0; }
    .amount-box { background: rgba(22, 163, 74, 0.08); border: 1px solid rgba(22, 163, 74, 0.3); border-radius: 12px; padding: 20px; margin: 20px 0; text-align: center; }
    .amount-box .amount { color: #15803d; font-size: 28px; font-weight: 700; }
    .footer { padding: 20px 30px; color: #9ca3af; font-size: 12px; text-align: center; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">
      <h2>Hi %s,</h2>
      <p>This month's team fee has been added to your balance.</p>
      <div class="amount-box">
        <div class="amount">%d</div>
        <p>monthly fee</p>
      </div>
      <p>Your total outstanding balance is now <strong>%d</strong>. Please settle it with your team treasurer, or file a payment request in the app once you have paid.</p>
    </div>
    <div class="footer">You are receiving this because you are an active member of %s.</div>
  </div>
</body>
</html>`, teamName, memberName, feeAmount, totalDebt, teamName)
}

// RenderDebtReminderEmail generates the HTML for the outstanding debt reminder
func RenderDebtReminderEmail(memberName, teamName string, totalDebt int64) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Outstanding Balance Reminder</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #f59e0b 0%%, #d97706 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #374151; }
    .content h2 { color: #111827; margin-top: 0; }
    .amount-box { background: rgba(245, 158, 11, 0.08); border: 1px solid rgba(245, 158, 11, 0.3); border-radius: 12px; padding: 20px; margin: 20px 0; text-align: center; }
    .amount-box .amount { color: #b45309; font-size: 28px; font-weight: 700; }
    .footer { padding: 20px 30px; color: #9ca3af; font-size: 12px; text-align: center; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">
      <h2>Hi %s,</h2>
      <p>A friendly reminder that you still have an outstanding balance with your team.</p>
      <div class="amount-box">
        <div class="amount">%d</div>
        <p>outstanding</p>
      </div>
      <p>Note that you cannot leave the team until the balance is settled. If you have already paid in cash, file a payment request in the app so your treasurer can confirm it.</p>
    </div>
    <div class="footer">You are receiving this because you are an active member of %s.</div>
  </div>
</body>
</html>`, teamName, memberName, totalDebt, teamName)
}
